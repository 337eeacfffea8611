package phoenix

import (
	"context"
	"fmt"

	"github.com/phoenixhw/phoenix/internal/perr"
)

// ReadRegister is a direct, bounds-checked pass-through to the register
// access layer (spec §4.5: "direct pass-through to §4.3 with
// bounds-checking"). width must be 16 or 32.
func (d *Device) ReadRegister(ctx context.Context, addr uint32, width int) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch width {
	case 16:
		v, err := d.acc.ReadU16(ctx, addr)
		return uint32(v), err
	case 32:
		return d.acc.ReadU32(ctx, addr)
	default:
		return 0, perr.InvalidArgument(fmt.Sprintf("unsupported register width %d", width))
	}
}

// WriteRegister is a direct, bounds-checked pass-through to the register
// access layer. width must be 16 or 32; for a 16-bit write, value is
// truncated to its low 16 bits by the uint16 cast below.
func (d *Device) WriteRegister(ctx context.Context, addr uint32, value uint32, width int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch width {
	case 16:
		return d.acc.WriteU16(ctx, addr, uint16(value))
	case 32:
		return d.acc.WriteU32(ctx, addr, value)
	default:
		return perr.InvalidArgument(fmt.Sprintf("unsupported register width %d", width))
	}
}
