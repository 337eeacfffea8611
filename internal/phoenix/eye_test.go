package phoenix_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phoenixhw/phoenix/internal/phoenix"
	"github.com/phoenixhw/phoenix/internal/regmap"
)

func TestEyeDiagram_Gen5_NoLowerUpper(t *testing.T) {
	base := uint32(0x0700) + uint32(regmap.LaneCount)*0x20
	regs := map[uint32]uint32{
		base + 0x04: 0x1, // capture_valid
		base + 0x08: 0x00001010,
	}
	r := newRegFile(regs)
	d := phoenix.New(r.mockTransport(), 0x50, phoenix.DeviceIdentity{})

	capture, err := d.EyeDiagram(context.Background(), 0, regmap.Gen5_32G)
	require.NoError(t, err)
	require.True(t, capture.CaptureValid)
	require.Nil(t, capture.LowerEye)
	require.Nil(t, capture.UpperEye)
	require.InDelta(t, 16.0*1000.0/64.0, capture.MiddleEye.LeftMarginMUI, 0.001)
}

func TestEyeDiagram_Gen6_HasLowerUpper(t *testing.T) {
	base := uint32(0x0700) + uint32(regmap.LaneCount)*0x20
	regs := map[uint32]uint32{
		base + 0x04: 0x1,
		base + 0x08: 0x00001010,
		base + 0x0C: 0x00001010,
		base + 0x10: 0x00001010,
	}
	r := newRegFile(regs)
	d := phoenix.New(r.mockTransport(), 0x50, phoenix.DeviceIdentity{})

	capture, err := d.EyeDiagram(context.Background(), 0, regmap.Gen6_64G)
	require.NoError(t, err)
	require.NotNil(t, capture.LowerEye)
	require.NotNil(t, capture.UpperEye)
}

func TestEyeDiagram_InvalidLane(t *testing.T) {
	r := newRegFile(map[uint32]uint32{})
	d := phoenix.New(r.mockTransport(), 0x50, phoenix.DeviceIdentity{})

	_, err := d.EyeDiagram(context.Background(), 99, regmap.Gen5_32G)
	require.Error(t, err)
}
