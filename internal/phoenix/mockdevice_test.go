package phoenix_test

import (
	"encoding/binary"
	"sync"

	"github.com/phoenixhw/phoenix/internal/framing"
	"github.com/phoenixhw/phoenix/internal/pec"
	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/transport"
)

// stateful register map wired behind a transport.Mock so façade-level tests
// can exercise read-modify-write sequences without real hardware. This
// decodes/encodes the same wire frames internal/framing builds, at the
// transport.Write/WriteRead boundary.
type regFile struct {
	mu   sync.Mutex
	regs map[uint32]uint32

	// nakCount, if set, makes WriteRead return a NAK for the listed
	// addresses the given number of times before succeeding.
	nakCount map[uint32]int
}

func newRegFile(initial map[uint32]uint32) *regFile {
	regs := make(map[uint32]uint32, len(initial))
	for k, v := range initial {
		regs[k] = v
	}
	return &regFile{regs: regs, nakCount: map[uint32]int{}}
}

func (r *regFile) get(addr uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.regs[addr]
}

func (r *regFile) set(addr, v uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs[addr] = v
}

func (r *regFile) mockTransport() *transport.Mock {
	m := transport.NewMock()
	m.WriteReadFunc = func(slave byte, write []byte, readLen int) ([]byte, error) {
		addr := binary.LittleEndian.Uint32(write[1:5])

		r.mu.Lock()
		if n := r.nakCount[addr]; n > 0 {
			r.nakCount[addr] = n - 1
			r.mu.Unlock()
			return nil, perr.Transport(perr.TransportNak, "mock nak", nil)
		}
		r.mu.Unlock()

		width := readLen - 1
		value := r.get(addr)
		data := make([]byte, width)
		switch width {
		case 2:
			binary.LittleEndian.PutUint16(data, uint16(value))
		case 4:
			binary.LittleEndian.PutUint32(data, value)
		}
		p := pec.Compute(append([]byte{(slave << 1) | 1}, data...))
		return append(data, p), nil
	}
	m.WriteFunc = func(slave byte, data []byte) error {
		addr := binary.LittleEndian.Uint32(data[1:5])
		width := len(data) - 1 - 4 - 1
		valueBytes := data[5 : 5+width]
		var value uint32
		switch width {
		case 2:
			value = uint32(binary.LittleEndian.Uint16(valueBytes))
		case 4:
			value = binary.LittleEndian.Uint32(valueBytes)
		}
		r.set(addr, value)
		return nil
	}
	return m
}

// newFramer builds a Framer over a regFile-backed mock transport for tests
// that want to exercise framing directly alongside the façade.
func newFramer(r *regFile, slave byte) *framing.Framer {
	return framing.New(r.mockTransport(), slave)
}
