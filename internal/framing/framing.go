// Package framing composes SMBus command frames with register addresses,
// write data, and CRC-8 PEC over a transport.Transport, and parses/verifies
// response frames. Frames are not retried by this layer — retry on
// transient bus errors is the transport's job (spec §4.2/§7).
package framing

import (
	"context"
	"encoding/binary"

	"github.com/phoenixhw/phoenix/internal/pec"
	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/transport"
)

// Command bytes on the wire.
const (
	CmdRegRead16  byte = 0x03
	CmdRegRead32  byte = 0x05
	CmdRegWrite16 byte = 0x13
	CmdRegWrite32 byte = 0x15
)

const addrFieldLen = 4 // ADDR_B0..ADDR_B3, little-endian, regardless of register width

// Framer translates (command, register address, width, payload) into wire
// bytes for one slave address over a shared Transport.
type Framer struct {
	t     transport.Transport
	slave byte
}

// New builds a Framer addressing slave over t.
func New(t transport.Transport, slave byte) *Framer {
	return &Framer{t: t, slave: slave}
}

// ReadRegister issues a REG_READ_16/32 and returns the decoded little-endian value.
func (f *Framer) ReadRegister(ctx context.Context, addr uint32, width int) (uint32, error) {
	cmd, err := readCommand(width)
	if err != nil {
		return 0, err
	}

	addrBytes := encodeAddr(addr)
	writePayload := make([]byte, 0, 1+addrFieldLen+1)
	writePayload = append(writePayload, cmd)
	writePayload = append(writePayload, addrBytes...)
	writePEC := pec.Compute(append([]byte{rwByte(f.slave, false)}, writePayload...))
	writePayload = append(writePayload, writePEC)

	resp, err := f.t.WriteRead(ctx, f.slave, writePayload, width+1)
	if err != nil {
		return 0, err
	}
	data := resp[:width]
	gotPEC := resp[width]
	wantPEC := pec.Compute(append([]byte{rwByte(f.slave, true)}, data...))
	if gotPEC != wantPEC {
		return 0, perr.PEC(wantPEC, gotPEC)
	}

	return decodeLE(data), nil
}

// WriteRegister issues a REG_WRITE_16/32 with value encoded little-endian.
func (f *Framer) WriteRegister(ctx context.Context, addr uint32, value uint32, width int) error {
	cmd, err := writeCommand(width)
	if err != nil {
		return err
	}

	addrBytes := encodeAddr(addr)
	dataBytes := encodeLE(value, width)

	frame := make([]byte, 0, 1+addrFieldLen+width+1)
	frame = append(frame, cmd)
	frame = append(frame, addrBytes...)
	frame = append(frame, dataBytes...)
	frameWithRW := append([]byte{rwByte(f.slave, false)}, frame...)
	frame = append(frame, pec.Compute(frameWithRW))

	return f.t.Write(ctx, f.slave, frame)
}

func readCommand(width int) (byte, error) {
	switch width {
	case 2:
		return CmdRegRead16, nil
	case 4:
		return CmdRegRead32, nil
	default:
		return 0, perr.InvalidArgument("register width must be 2 or 4 bytes")
	}
}

func writeCommand(width int) (byte, error) {
	switch width {
	case 2:
		return CmdRegWrite16, nil
	case 4:
		return CmdRegWrite32, nil
	default:
		return 0, perr.InvalidArgument("register width must be 2 or 4 bytes")
	}
}

// rwByte assembles the shifted 7-bit slave address with the R/W bit, the
// SMBus PEC convention of covering "the address byte as it appears on the
// wire" even though transport.Write/WriteRead take the address out of band.
func rwByte(slave byte, isRead bool) byte {
	b := slave << 1
	if isRead {
		b |= 1
	}
	return b
}

func encodeAddr(addr uint32) []byte {
	b := make([]byte, addrFieldLen)
	binary.LittleEndian.PutUint32(b, addr)
	return b
}

func encodeLE(v uint32, width int) []byte {
	b := make([]byte, width)
	switch width {
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, v)
	}
	return b
}

func decodeLE(b []byte) uint32 {
	switch len(b) {
	case 2:
		return uint32(binary.LittleEndian.Uint16(b))
	case 4:
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}
