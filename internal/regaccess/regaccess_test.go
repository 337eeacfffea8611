package regaccess_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phoenixhw/phoenix/internal/framing"
	"github.com/phoenixhw/phoenix/internal/pec"
	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/regaccess"
	"github.com/phoenixhw/phoenix/internal/transport"
)

func TestWriteU32_Misaligned(t *testing.T) {
	mock := transport.NewMock()
	a := regaccess.New(framing.New(mock, 0x50))

	err := a.WriteU32(context.Background(), 0x0001, 0xDEADBEEF)
	var pe *perr.Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, perr.KindInvalidArgument, pe.Kind)
}

func TestReadU16_Misaligned(t *testing.T) {
	mock := transport.NewMock()
	a := regaccess.New(framing.New(mock, 0x50))

	_, err := a.ReadU16(context.Background(), 0x0001)
	var pe *perr.Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, perr.KindInvalidArgument, pe.Kind)
}

func TestWriteThenRead_MockDevice(t *testing.T) {
	var stored uint32
	mock := transport.NewMock()
	mock.WriteFunc = func(addr byte, data []byte) error {
		// data: [cmd, addrB0..3, dataB0..3, pec]
		stored = uint32(data[5]) | uint32(data[6])<<8 | uint32(data[7])<<16 | uint32(data[8])<<24
		return nil
	}
	mock.WriteReadFunc = func(addr byte, write []byte, readLen int) ([]byte, error) {
		data := []byte{byte(stored), byte(stored >> 8), byte(stored >> 16), byte(stored >> 24)}
		rw := (addr << 1) | 1
		p := pec.Compute(append([]byte{rw}, data...))
		return append(data, p), nil
	}

	a := regaccess.New(framing.New(mock, 0x50))
	require.NoError(t, a.WriteU32(context.Background(), 0x0000, 0xCAFEBABE))
	got, err := a.ReadU32(context.Background(), 0x0000)
	require.NoError(t, err)
	require.Equal(t, uint32(0xCAFEBABE), got)
}
