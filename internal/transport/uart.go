package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"github.com/google/uuid"

	"github.com/phoenixhw/phoenix/internal/pec"
	"github.com/phoenixhw/phoenix/internal/perr"
)

const (
	uartSync       byte = 0xA5
	uartMaxPayload      = 255 - 1 // LEN is a single byte; PEC/SLAVE accounted separately at framing level
)

// UARTTransport implements Transport over a raw serial line using a
// self-synchronizing packet protocol: SYNC | LEN | SLAVE | PAYLOAD | PEC.
// UART carries no true multi-drop bus addressing of its own — SLAVE is
// carried in the frame so a single daisy-chained line can still address one
// of several devices, and WriteRead is implemented as two frames correlated
// by a single-byte cookie embedded at the end of the request payload.
type UARTTransport struct {
	mu   sync.Mutex
	cfg  UARTConfig
	port serial.Port
}

// NewUART constructs (but does not open) a UART transport.
func NewUART(cfg UARTConfig) *UARTTransport {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}
	return &UARTTransport{cfg: cfg}
}

func (t *UARTTransport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	port, err := serial.Open(t.cfg.PortName, &serial.Mode{
		BaudRate: int(t.cfg.BaudRate),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return perr.Transport(perr.TransportAdapterNotFound, fmt.Sprintf("open %s", t.cfg.PortName), err)
	}
	if err := port.SetReadTimeout(DefaultTimeout); err != nil {
		port.Close()
		return perr.Transport(perr.TransportAdapterNotFound, "set read timeout", err)
	}
	t.port = port
	return nil
}

func (t *UARTTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port != nil {
		err := t.port.Close()
		t.port = nil
		return err
	}
	return nil
}

func (t *UARTTransport) Write(ctx context.Context, slaveAddr byte, data []byte) error {
	return withRetry(ctx, func() error {
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.writeFrame(slaveAddr, data)
	})
}

func (t *UARTTransport) Read(ctx context.Context, slaveAddr byte, n int) ([]byte, error) {
	var out []byte
	err := withRetry(ctx, func() error {
		t.mu.Lock()
		defer t.mu.Unlock()
		payload, err := t.readFrame()
		if err != nil {
			return err
		}
		if len(payload) != n {
			return perr.Transport(perr.TransportFramingError, fmt.Sprintf("expected %d bytes, got %d", n, len(payload)), nil)
		}
		out = payload
		return nil
	})
	return out, err
}

// WriteRead sends a request frame with a correlation cookie appended to the
// payload, then reads a response frame and verifies the cookie echoes back
// as the first response byte. The returned bytes are the response payload
// with the cookie stripped, truncated/validated to readLen.
func (t *UARTTransport) WriteRead(ctx context.Context, slaveAddr byte, write []byte, readLen int) ([]byte, error) {
	var out []byte
	err := withRetry(ctx, func() error {
		t.mu.Lock()
		defer t.mu.Unlock()

		cookie := correlationCookie()
		req := make([]byte, 0, len(write)+1)
		req = append(req, write...)
		req = append(req, cookie)

		if err := t.writeFrame(slaveAddr, req); err != nil {
			return err
		}
		resp, err := t.readFrame()
		if err != nil {
			return err
		}
		if len(resp) < 1 || resp[0] != cookie {
			return perr.Transport(perr.TransportFramingError, "write_read cookie mismatch", nil)
		}
		payload := resp[1:]
		if len(payload) != readLen {
			return perr.Transport(perr.TransportFramingError, fmt.Sprintf("expected %d response bytes, got %d", readLen, len(payload)), nil)
		}
		out = payload
		return nil
	})
	return out, err
}

// correlationCookie derives a single byte from a fresh UUID so concurrent
// write_read calls on a multi-drop UART line cannot be confused with one
// another even though the wire itself carries no transaction ID.
func correlationCookie() byte {
	id := uuid.New()
	return id[0]
}

func (t *UARTTransport) writeFrame(slaveAddr byte, payload []byte) error {
	if len(payload) > uartMaxPayload {
		return perr.InvalidArgument("UART payload exceeds 254 bytes")
	}
	frame := make([]byte, 0, len(payload)+4)
	frame = append(frame, uartSync, byte(len(payload)), slaveAddr)
	frame = append(frame, payload...)
	frame = append(frame, pec.Compute(frame[1:])) // PEC covers LEN|SLAVE|PAYLOAD

	if _, err := t.port.Write(frame); err != nil {
		return perr.Transport(perr.TransportBusError, "uart write", err)
	}
	return nil
}

// readFrame discards bytes until SYNC, then reads LEN, SLAVE, PAYLOAD, and
// PEC. A PEC mismatch is returned as a PecError; the next call starts again
// by discarding bytes until SYNC.
func (t *UARTTransport) readFrame() ([]byte, error) {
	deadline := time.Now().Add(DefaultTimeout)
	one := make([]byte, 1)

	for {
		if time.Now().After(deadline) {
			return nil, perr.Timeout("uart_read_frame")
		}
		n, err := t.port.Read(one)
		if err != nil {
			return nil, perr.Transport(perr.TransportBusError, "uart read sync", err)
		}
		if n == 0 {
			continue // read timeout elapsed with nothing available
		}
		if one[0] == uartSync {
			break
		}
	}

	header := make([]byte, 2) // LEN, SLAVE
	if err := t.readFull(header); err != nil {
		return nil, err
	}
	length := int(header[0])
	body := make([]byte, length+1) // PAYLOAD + PEC
	if err := t.readFull(body); err != nil {
		return nil, err
	}

	payload := body[:length]
	gotPEC := body[length]
	wantPEC := pec.Compute(append(header, payload...))
	if gotPEC != wantPEC {
		return nil, perr.PEC(wantPEC, gotPEC)
	}
	return payload, nil
}

func (t *UARTTransport) readFull(buf []byte) error {
	deadline := time.Now().Add(DefaultTimeout)
	read := 0
	for read < len(buf) {
		if time.Now().After(deadline) {
			return perr.Timeout("uart_read_full")
		}
		n, err := t.port.Read(buf[read:])
		if err != nil {
			return perr.Transport(perr.TransportBusError, "uart read", err)
		}
		read += n
	}
	return nil
}
