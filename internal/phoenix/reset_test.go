package phoenix_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phoenixhw/phoenix/internal/phoenix"
	"github.com/phoenixhw/phoenix/internal/regmap"
)

func TestReset_RecoversAfterNaks(t *testing.T) {
	r := newRegFile(map[uint32]uint32{
		regmap.AddrResetCtrl:   0,
		regmap.AddrXAgentInfo0: 0xABCD0123,
	})
	r.nakCount[regmap.AddrXAgentInfo0] = 3

	d := phoenix.New(r.mockTransport(), 0x50, phoenix.DeviceIdentity{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := d.Reset(ctx, regmap.ResetSoft)
	require.NoError(t, err)
	require.Less(t, time.Since(start), 5*time.Second)

	raw := r.get(regmap.AddrResetCtrl)
	desc, _ := regmap.Lookup(regmap.AddrResetCtrl)
	soft, _ := desc.Field("SOFT")
	require.Equal(t, uint32(1), soft.Extract(raw))
}

func TestReset_TimesOutWhenDeviceNeverReturns(t *testing.T) {
	r := newRegFile(map[uint32]uint32{regmap.AddrResetCtrl: 0})
	r.nakCount[regmap.AddrXAgentInfo0] = 1000

	d := phoenix.New(r.mockTransport(), 0x50, phoenix.DeviceIdentity{})

	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
	defer cancel()

	err := d.Reset(ctx, regmap.ResetHard)
	require.Error(t, err)
}
