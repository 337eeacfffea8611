package discovery

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phoenixhw/phoenix/internal/pec"
	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/transport"
)

// scriptedOpen builds an openTransport override that returns a
// transport.Mock answering GLOBAL_PARAM1/XAGENT_INFO_0 reads per address
// from regsByAddr, or a NAK for any address not present.
func scriptedOpen(regsByAddr map[uint8]map[uint32]uint32, nakAddrs map[uint8]bool) func(ctx context.Context, cfg transport.Config) (transport.Transport, error) {
	return func(ctx context.Context, cfg transport.Config) (transport.Transport, error) {
		addr := cfg.I2C.SlaveAddress
		m := transport.NewMock()
		if nakAddrs[addr] {
			m.WriteReadFunc = func(slave byte, write []byte, readLen int) ([]byte, error) {
				return nil, perr.Transport(perr.TransportNak, "no ack", nil)
			}
			return m, nil
		}
		regs := regsByAddr[addr]
		m.WriteReadFunc = func(slave byte, write []byte, readLen int) ([]byte, error) {
			regAddr := binary.LittleEndian.Uint32(write[1:5])
			value := regs[regAddr]
			width := readLen - 1
			buf := make([]byte, 4)
			binary.LittleEndian.PutUint32(buf, value)
			data := buf[:width]
			p := pec.Compute(append([]byte{(slave << 1) | 1}, data...))
			return append(data, p), nil
		}
		return m, nil
	}
}

func TestDiscover_ScenarioOne(t *testing.T) {
	regsByAddr := map[uint8]map[uint32]uint32{
		0x50: {
			0x0004: 0x14E40201, // GLOBAL_PARAM1
			0x4000: 0xABCD0123, // XAGENT_INFO_0
		},
	}
	nakAddrs := map[uint8]bool{0x51: true}

	orig := openTransport
	openTransport = scriptedOpen(regsByAddr, nakAddrs)
	defer func() { openTransport = orig }()

	cfg := transport.Config{Kind: transport.KindI2C, I2C: transport.I2CConfig{AdapterPort: 1, BusSpeedKHz: 400}}
	found, err := Discover(context.Background(), cfg, []uint8{0x51, 0x50})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, uint16(0x14E4), found[0].VendorID)
	require.EqualValues(t, 0x50, found[0].DeviceAddress)
}

func TestDiscover_AbortsOnNonSkippableError(t *testing.T) {
	orig := openTransport
	openTransport = func(ctx context.Context, cfg transport.Config) (transport.Transport, error) {
		return nil, perr.Transport(perr.TransportAdapterNotFound, "adapter missing", nil)
	}
	defer func() { openTransport = orig }()

	cfg := transport.Config{Kind: transport.KindI2C, I2C: transport.I2CConfig{AdapterPort: 1, BusSpeedKHz: 400}}
	_, err := Discover(context.Background(), cfg, []uint8{0x50})
	require.Error(t, err)
}

func TestDiscover_EmptyAddressList(t *testing.T) {
	cfg := transport.Config{Kind: transport.KindI2C, I2C: transport.I2CConfig{AdapterPort: 1, BusSpeedKHz: 400}}
	found, err := Discover(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Empty(t, found)
}
