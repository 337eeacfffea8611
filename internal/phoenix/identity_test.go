package phoenix_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/phoenix"
	"github.com/phoenixhw/phoenix/internal/regmap"
)

func TestProbe_ScenarioOne(t *testing.T) {
	r := newRegFile(map[uint32]uint32{
		regmap.AddrGlobalParam1: 0x14E40201, // vendor=0x14E4, device=0x02, rev=0x01
		regmap.AddrXAgentInfo0:  0xABCD0123, // fw major=0x01, minor=0x23, product=0xABCD
	})

	id, err := phoenix.Probe(context.Background(), r.mockTransport(), 0x50)
	require.NoError(t, err)
	require.Equal(t, phoenix.BroadcomVendorID, id.VendorID)
	require.EqualValues(t, 0x02, id.DeviceID)
	require.EqualValues(t, 0x01, id.RevisionID)
	require.EqualValues(t, 1, id.FirmwareMajor)
	require.EqualValues(t, 0x23, id.FirmwareMinor)
	require.EqualValues(t, 0xABCD, id.ProductID)
	require.Equal(t, byte(0x50), id.DeviceAddress)
}

func TestProbe_VendorMismatch(t *testing.T) {
	r := newRegFile(map[uint32]uint32{
		regmap.AddrGlobalParam1: 0x00010201, // foreign vendor
	})

	_, err := phoenix.Probe(context.Background(), r.mockTransport(), 0x51)
	require.Error(t, err)
	perrErr, ok := err.(*perr.Error)
	require.True(t, ok)
	require.Equal(t, perr.KindDeviceNotFound, perrErr.Kind)
}
