package phoenix

import (
	"context"
	"time"

	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/regmap"
)

// resetSettleDelay is how long reset asserts before the façade starts
// polling for the device to come back (spec §4.5: "the device may NAK for
// up to 500 ms; the façade waits 200 ms").
const resetSettleDelay = 200 * time.Millisecond

// resetPollInterval and resetTotalBudget bound the post-reset poll of
// XAGENT_INFO_0.
const (
	resetPollInterval = 50 * time.Millisecond
	resetTotalBudget  = 5 * time.Second
)

// Reset asserts exactly one RESET_CTRL bit, waits for the settle delay, then
// polls XAGENT_INFO_0 until a valid read succeeds or the total budget
// elapses. SOFT and GLOBAL_SWRST preserve configuration; the façade does not
// re-apply any state afterward.
func (d *Device) Reset(ctx context.Context, kind regmap.ResetType) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	desc, _ := regmap.Lookup(regmap.AddrResetCtrl)
	var field regmap.FieldDescriptor
	switch kind {
	case regmap.ResetHard:
		field, _ = desc.Field("HARD")
	case regmap.ResetSoft:
		field, _ = desc.Field("SOFT")
	case regmap.ResetMAC:
		field, _ = desc.Field("MAC")
	case regmap.ResetPERST:
		field, _ = desc.Field("PERST")
	case regmap.ResetGlobalSWRST:
		field, _ = desc.Field("GLOBAL_SWRST")
	default:
		return perr.InvalidArgument("unknown reset type")
	}

	raw := field.Insert(0, 1)
	if err := d.acc.WriteU32(ctx, regmap.AddrResetCtrl, raw); err != nil {
		return perr.Wrap("reset: write RESET_CTRL", err)
	}

	select {
	case <-time.After(resetSettleDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	deadline := time.Now().Add(resetTotalBudget)
	for {
		_, err := d.acc.ReadU32(ctx, regmap.AddrXAgentInfo0)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return perr.Timeout("reset")
		}
		select {
		case <-time.After(resetPollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
