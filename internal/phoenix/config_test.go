package phoenix_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phoenixhw/phoenix/internal/phoenix"
	"github.com/phoenixhw/phoenix/internal/regmap"
)

func TestSetConfiguration_MaxDataRate(t *testing.T) {
	r := newRegFile(map[uint32]uint32{regmap.AddrGlobalParam0: 0x00000000})
	d := phoenix.New(r.mockTransport(), 0x50, phoenix.DeviceIdentity{})

	rate := regmap.Gen5_32G
	err := d.SetConfiguration(context.Background(), phoenix.ConfigurationUpdate{MaxDataRate: &rate})
	require.NoError(t, err)
	require.Equal(t, uint32(0x04000000), r.get(regmap.AddrGlobalParam0))
}

func TestGetConfiguration_RoundTrip(t *testing.T) {
	r := newRegFile(map[uint32]uint32{
		regmap.AddrGlobalParam0: 0x04000000,
		regmap.AddrGlobalIntr:   0x00060000,
	})
	d := phoenix.New(r.mockTransport(), 0x50, phoenix.DeviceIdentity{})

	cfg, err := d.GetConfiguration(context.Background())
	require.NoError(t, err)
	require.Equal(t, regmap.Gen5_32G, cfg.MaxDataRate)
	require.True(t, cfg.InterruptEnables.PhyPhaseErr)
	require.True(t, cfg.InterruptEnables.EqPhaseErr)
	require.False(t, cfg.InterruptEnables.Global)
}

func TestSetConfiguration_OnlyTouchesSpecifiedFields(t *testing.T) {
	r := newRegFile(map[uint32]uint32{regmap.AddrGlobalParam0: 0x00000080}) // BIFURCATION=1
	d := phoenix.New(r.mockTransport(), 0x50, phoenix.DeviceIdentity{})

	orientation := true
	err := d.SetConfiguration(context.Background(), phoenix.ConfigurationUpdate{PortOrientation: &orientation})
	require.NoError(t, err)

	raw := r.get(regmap.AddrGlobalParam0)
	desc, _ := regmap.Lookup(regmap.AddrGlobalParam0)
	bif, _ := desc.Field("BIFURCATION")
	orien, _ := desc.Field("PORT_ORIEN")
	require.Equal(t, uint32(1), bif.Extract(raw), "untouched field must survive the RMW")
	require.Equal(t, uint32(1), orien.Extract(raw))
}
