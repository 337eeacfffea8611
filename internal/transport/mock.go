package transport

import (
	"context"
	"sync"
)

// Mock is a scriptable in-memory Transport for deterministic tests of the
// framing, register-access, and façade layers without real hardware —
// the transport-level analog of the teacher's hardware.Mock, adapted from a
// register map (which belongs one layer up, in regmap) to raw wire bytes.
type Mock struct {
	mu sync.Mutex

	// WriteReadFunc, if set, handles WriteRead calls. Tests that need to
	// decode the outgoing frame and craft a byte-exact response set this.
	WriteReadFunc func(slaveAddr byte, write []byte, readLen int) ([]byte, error)
	// WriteFunc, if set, handles Write calls.
	WriteFunc func(slaveAddr byte, data []byte) error
	// ReadFunc, if set, handles Read calls.
	ReadFunc func(slaveAddr byte, n int) ([]byte, error)

	OpenCalls  int
	CloseCalls int
	Closed     bool
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OpenCalls++
	m.Closed = false
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	m.Closed = true
	return nil
}

func (m *Mock) Write(ctx context.Context, slaveAddr byte, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(slaveAddr, data)
	}
	return nil
}

func (m *Mock) Read(ctx context.Context, slaveAddr byte, n int) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(slaveAddr, n)
	}
	return make([]byte, n), nil
}

func (m *Mock) WriteRead(ctx context.Context, slaveAddr byte, write []byte, readLen int) ([]byte, error) {
	if m.WriteReadFunc != nil {
		return m.WriteReadFunc(slaveAddr, write, readLen)
	}
	return make([]byte, readLen), nil
}
