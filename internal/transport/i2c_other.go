//go:build !linux

package transport

import (
	"context"

	"github.com/phoenixhw/phoenix/internal/perr"
)

// I2CTransport is unavailable on non-Linux hosts — the real adapter speaks
// through the Linux i2c-dev ioctl interface. Builds on other platforms get a
// stub that always fails AdapterNotFound, so the package still compiles for
// tooling that cross-compiles the CLI without the I2C variant.
type I2CTransport struct{}

func openI2C(ctx context.Context, cfg I2CConfig) (*I2CTransport, error) {
	return nil, perr.Transport(perr.TransportAdapterNotFound, "I2C transport requires linux", nil)
}

func (t *I2CTransport) Open(ctx context.Context) error { return nil }
func (t *I2CTransport) Close() error                    { return nil }
func (t *I2CTransport) Write(ctx context.Context, slaveAddr byte, data []byte) error {
	return perr.Transport(perr.TransportAdapterNotFound, "I2C transport requires linux", nil)
}
func (t *I2CTransport) Read(ctx context.Context, slaveAddr byte, n int) ([]byte, error) {
	return nil, perr.Transport(perr.TransportAdapterNotFound, "I2C transport requires linux", nil)
}
func (t *I2CTransport) WriteRead(ctx context.Context, slaveAddr byte, write []byte, readLen int) ([]byte, error) {
	return nil, perr.Transport(perr.TransportAdapterNotFound, "I2C transport requires linux", nil)
}
