package registry

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phoenixhw/phoenix/internal/pec"
	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/transport"
)

func fakeOpenOK(t *testing.T) func(ctx context.Context, cfg transport.Config) (transport.Transport, error) {
	return func(ctx context.Context, cfg transport.Config) (transport.Transport, error) {
		m := transport.NewMock()
		m.WriteReadFunc = func(slave byte, write []byte, readLen int) ([]byte, error) {
			regAddr := binary.LittleEndian.Uint32(write[1:5])
			var value uint32
			switch regAddr {
			case 0x0004:
				value = 0x14E40201
			case 0x4000:
				value = 0xABCD0123
			}
			width := readLen - 1
			data := make([]byte, 4)
			binary.LittleEndian.PutUint32(data, value)
			data = data[:width]
			p := pec.Compute(append([]byte{(slave << 1) | 1}, data...))
			return append(data, p), nil
		}
		return m, nil
	}
}

func TestConnect_AllocatesIncreasingHandles(t *testing.T) {
	orig := openTransport
	openTransport = fakeOpenOK(t)
	defer func() { openTransport = orig }()

	r := New()
	cfg := transport.Config{Kind: transport.KindI2C, I2C: transport.I2CConfig{AdapterPort: 1, SlaveAddress: 0x50}}

	h1, err := r.Connect(context.Background(), cfg)
	require.NoError(t, err)
	h2, err := r.Connect(context.Background(), cfg)
	require.NoError(t, err)
	require.Less(t, h1, h2)
	require.Equal(t, 2, r.Len())
}

func TestDisconnect_ThenGetFailsUnknownHandle(t *testing.T) {
	orig := openTransport
	openTransport = fakeOpenOK(t)
	defer func() { openTransport = orig }()

	r := New()
	cfg := transport.Config{Kind: transport.KindI2C, I2C: transport.I2CConfig{AdapterPort: 1, SlaveAddress: 0x50}}
	h, err := r.Connect(context.Background(), cfg)
	require.NoError(t, err)

	require.NoError(t, r.Disconnect(h))

	_, err = r.Get(h)
	require.Error(t, err)
	pe, ok := err.(*perr.Error)
	require.True(t, ok)
	require.Equal(t, perr.KindUnknownHandle, pe.Kind)
}

func TestGet_UnknownHandle(t *testing.T) {
	r := New()
	_, err := r.Get(999)
	require.Error(t, err)
}

func TestConnectDisconnect_PublishesLifecycleEvents(t *testing.T) {
	orig := openTransport
	openTransport = fakeOpenOK(t)
	defer func() { openTransport = orig }()

	r := New()
	sub := r.Events.Subscribe("watcher")
	defer r.Events.Unsubscribe("watcher")

	cfg := transport.Config{Kind: transport.KindI2C, I2C: transport.I2CConfig{AdapterPort: 1, SlaveAddress: 0x50}}
	h, err := r.Connect(context.Background(), cfg)
	require.NoError(t, err)

	connected := <-sub
	require.Equal(t, DeviceConnected, connected.Kind)
	require.Equal(t, h, connected.Handle)

	require.NoError(t, r.Disconnect(h))
	disconnected := <-sub
	require.Equal(t, DeviceDisconnected, disconnected.Kind)
	require.Equal(t, h, disconnected.Handle)
}

func TestConnect_ProbeFailurePropagates(t *testing.T) {
	orig := openTransport
	openTransport = func(ctx context.Context, cfg transport.Config) (transport.Transport, error) {
		m := transport.NewMock()
		m.WriteReadFunc = func(slave byte, write []byte, readLen int) ([]byte, error) {
			return nil, perr.Transport(perr.TransportNak, "no ack", nil)
		}
		return m, nil
	}
	defer func() { openTransport = orig }()

	r := New()
	cfg := transport.Config{Kind: transport.KindI2C, I2C: transport.I2CConfig{AdapterPort: 1, SlaveAddress: 0x50}}
	_, err := r.Connect(context.Background(), cfg)
	require.Error(t, err)
	require.Equal(t, 0, r.Len())
}
