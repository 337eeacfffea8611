package framing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phoenixhw/phoenix/internal/framing"
	"github.com/phoenixhw/phoenix/internal/pec"
	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/transport"
)

const slave = 0x50

func TestWriteRegister_Endianness(t *testing.T) {
	var captured []byte
	mock := transport.NewMock()
	mock.WriteFunc = func(addr byte, data []byte) error {
		captured = data
		return nil
	}

	f := framing.New(mock, slave)
	require.NoError(t, f.WriteRegister(context.Background(), 0x0000, 0x11223344, 4))

	require.Equal(t, framing.CmdRegWrite32, captured[0])
	// ADDR_B0..B3 for 0x0000
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, captured[1:5])
	// DATA_B0..B3 little-endian for 0x11223344
	require.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, captured[5:9])
}

func TestReadRegister_RoundTrip(t *testing.T) {
	mock := transport.NewMock()
	mock.WriteReadFunc = func(addr byte, write []byte, readLen int) ([]byte, error) {
		data := []byte{0x2D, 0x00, 0x00, 0x80} // temperature example: valid + 45
		rw := (addr << 1) | 1
		p := pec.Compute(append([]byte{rw}, data...))
		return append(data, p), nil
	}

	f := framing.New(mock, slave)
	val, err := f.ReadRegister(context.Background(), 0x0100, 4)
	require.NoError(t, err)
	require.Equal(t, uint32(0x8000002D), val)
}

func TestReadRegister_PecMismatch(t *testing.T) {
	mock := transport.NewMock()
	mock.WriteReadFunc = func(addr byte, write []byte, readLen int) ([]byte, error) {
		data := make([]byte, readLen-1)
		return append(data, 0xFF), nil // deliberately wrong PEC
	}

	f := framing.New(mock, slave)
	_, err := f.ReadRegister(context.Background(), 0x0000, 4)
	var pe *perr.Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, perr.KindPecError, pe.Kind)
}

func TestPEC_ReferenceVector(t *testing.T) {
	require.Equal(t, byte(0x48), pec.Compute([]byte{0x01, 0x02, 0x03}))
}
