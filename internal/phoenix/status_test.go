package phoenix_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phoenixhw/phoenix/internal/phoenix"
	"github.com/phoenixhw/phoenix/internal/regmap"
)

func TestGetStatus_ScenarioTwo(t *testing.T) {
	regs := map[uint32]uint32{
		regmap.AddrTemperature:    0x8000002D, // VALID=1, value=45
		regmap.AddrVoltageDvdd1:  0x00000334, // 820 mV
		regmap.AddrGlobalIntr:    0x00000000,
		regmap.AddrPPALtssmState: 0x00010404,
		regmap.AddrPPBLtssmState: 0x00000000,
	}
	for _, addr := range regmap.VoltageRailAddrs {
		if _, ok := regs[addr]; !ok {
			regs[addr] = 0
		}
	}
	for lane := 0; lane < regmap.LaneCount; lane++ {
		regs[regmap.ErrorStatsAddr(lane)] = 0
	}

	r := newRegFile(regs)
	d := phoenix.New(r.mockTransport(), 0x50, phoenix.DeviceIdentity{})

	status, err := d.GetStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, int16(45), status.TemperatureC)
	require.Equal(t, uint16(820), status.Voltages.Dvdd1)
	require.True(t, status.IsHealthy)
	require.Equal(t, "fwd_forwarding", status.PPAStatus.CurrentLtssmState.String())
	require.Equal(t, regmap.Gen5_32G, status.PPAStatus.CurrentLinkSpeed)
	require.EqualValues(t, 16, status.PPAStatus.CurrentLinkWidth)
	require.False(t, status.PPAStatus.ForwardingMode)
}

func TestGetStatus_TemperatureInvalid(t *testing.T) {
	regs := map[uint32]uint32{
		regmap.AddrTemperature: 0x0000002D, // VALID=0
	}
	for _, addr := range regmap.VoltageRailAddrs {
		regs[addr] = 0
	}
	for lane := 0; lane < regmap.LaneCount; lane++ {
		regs[regmap.ErrorStatsAddr(lane)] = 0
	}
	regs[regmap.AddrGlobalIntr] = 0
	regs[regmap.AddrPPALtssmState] = 0
	regs[regmap.AddrPPBLtssmState] = 0

	r := newRegFile(regs)
	d := phoenix.New(r.mockTransport(), 0x50, phoenix.DeviceIdentity{})

	status, err := d.GetStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, int16(0), status.TemperatureC)
	require.False(t, status.IsHealthy)
}
