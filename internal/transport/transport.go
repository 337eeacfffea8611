// Package transport provides the byte-level duplex abstraction to a single
// physical adapter: I2C/SMBus via a USB-to-I2C bridge, or UART via a
// length-framed serial packet protocol. Both variants are sibling
// implementations of the same Transport interface — there is no shared base
// class, matching the way the teacher's hardware.Driver interface is
// implemented independently by I2CDriver and Mock.
package transport

import (
	"context"
	"time"
)

// Transport is the capability set every adapter variant implements.
// All methods are safe for concurrent use by multiple goroutines; callers
// needing atomicity across a write+read pair should use WriteRead rather
// than composing Write then Read.
type Transport interface {
	// Open acquires the underlying hardware handle. Must be called once
	// before any other method.
	Open(ctx context.Context) error

	// Close releases the hardware handle. Idempotent.
	Close() error

	// Write sends bytes to the given slave address.
	Write(ctx context.Context, slaveAddr byte, data []byte) error

	// Read reads exactly n bytes from the given slave address.
	Read(ctx context.Context, slaveAddr byte, n int) ([]byte, error)

	// WriteRead performs an atomic write followed by a read, with no STOP
	// condition between them on I2C (repeated START).
	WriteRead(ctx context.Context, slaveAddr byte, write []byte, readLen int) ([]byte, error)
}

// Kind discriminates which TransportConfig variant is populated.
type Kind int

const (
	KindI2C Kind = iota
	KindUART
)

// Config is the tagged-union configuration for opening a Transport.
// Exactly one of I2C or UART is meaningful, selected by Kind.
type Config struct {
	Kind Kind
	I2C  I2CConfig
	UART UARTConfig
}

// I2CConfig configures the I2C/SMBus variant.
type I2CConfig struct {
	AdapterPort  uint8
	BusSpeedKHz  uint16 // 100, 400, or 1000
	SlaveAddress uint8  // 7-bit
}

// UARTConfig configures the UART variant.
type UARTConfig struct {
	PortName string
	BaudRate uint32
}

// WithSlaveAddress returns a copy of cfg with the I2C slave address replaced.
// Discovery uses this to probe each candidate address with its own transient
// transport without mutating the caller's config.
func (c Config) WithSlaveAddress(addr uint8) Config {
	out := c
	out.I2C.SlaveAddress = addr
	return out
}

const (
	// DefaultTimeout bounds every individual transport operation.
	DefaultTimeout = 1000 * time.Millisecond
	// maxRetries is the number of additional attempts after the first,
	// for transient BusError/FramingError. NAK is never retried.
	maxRetries = 2
	// retryBackoff is the delay between retry attempts.
	retryBackoff = 10 * time.Millisecond
)

// Open constructs and opens the Transport variant named by cfg.Kind.
func Open(ctx context.Context, cfg Config) (Transport, error) {
	switch cfg.Kind {
	case KindI2C:
		return openI2C(ctx, cfg.I2C)
	case KindUART:
		t := NewUART(cfg.UART)
		if err := t.Open(ctx); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, invalidKind()
	}
}
