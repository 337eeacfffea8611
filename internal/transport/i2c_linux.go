//go:build linux

package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/phoenixhw/phoenix/internal/perr"
)

const (
	i2cRdwrIOCTL = 0x0707 // I2C_RDWR ioctl — combined write(+read) with REPEATED START
	i2cMsgRD     = 0x0001 // i2c_msg flag: read direction
	maxOpsPerSec = 500    // adapter transaction-rate ceiling
)

// i2cMsg mirrors struct i2c_msg from linux/i2c.h.
type i2cMsg struct {
	addr   uint16
	flags  uint16
	length uint16
	_pad   uint16 // struct alignment
	buf    uintptr
}

// i2cRdwr mirrors struct i2c_rdwr_ioctl_data from linux/i2c-dev.h.
type i2cRdwr struct {
	msgs  uintptr
	nmsgs uint32
}

// I2CTransport wraps a USB-to-I2C adapter (FT232H-class) presented to Linux
// as /dev/i2c-N, issuing combined write+read transactions with I2C_RDWR so
// the bus sees a proper repeated START rather than a STOP between phases.
type I2CTransport struct {
	mu      sync.Mutex
	cfg     I2CConfig
	fd      int
	limiter *rate.Limiter
}

func openI2C(ctx context.Context, cfg I2CConfig) (*I2CTransport, error) {
	t := &I2CTransport{cfg: cfg, fd: -1, limiter: rate.NewLimiter(rate.Limit(maxOpsPerSec), 10)}
	if err := t.Open(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func devPath(adapterPort uint8) string {
	return fmt.Sprintf("/dev/i2c-%d", adapterPort)
}

// Open checks the configured bus speed (defaulting 0 to 400 kHz) and opens
// the shared fd. It does not program the adapter clock, enable pull-ups, or
// drain the bus.
func (t *I2CTransport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.cfg.BusSpeedKHz {
	case 100, 400, 1000:
	case 0:
		t.cfg.BusSpeedKHz = 400
	default:
		return perr.InvalidArgument(fmt.Sprintf("unsupported bus speed %dkHz", t.cfg.BusSpeedKHz))
	}

	path := devPath(t.cfg.AdapterPort)
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return perr.Transport(perr.TransportAdapterNotFound, fmt.Sprintf("open %s", path), err)
	}
	t.fd = fd
	slog.Debug("transport/i2c: opened adapter", "path", path, "speed_khz", t.cfg.BusSpeedKHz)
	return nil
}

// Close releases the I2C file descriptor. Idempotent.
func (t *I2CTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fd >= 0 {
		unix.Close(t.fd)
		t.fd = -1
	}
	return nil
}

func (t *I2CTransport) Write(ctx context.Context, slaveAddr byte, data []byte) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return withRetry(ctx, func() error {
		return withTimeout(ctx, "i2c_write", func(context.Context) error {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.fd < 0 {
				return perr.Transport(perr.TransportAdapterNotFound, "adapter not open", nil)
			}
			return t.rdwr(slaveAddr, [][]byte{data}, []bool{false})
		})
	})
}

func (t *I2CTransport) Read(ctx context.Context, slaveAddr byte, n int) ([]byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var out []byte
	err := withRetry(ctx, func() error {
		return withTimeout(ctx, "i2c_read", func(context.Context) error {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.fd < 0 {
				return perr.Transport(perr.TransportAdapterNotFound, "adapter not open", nil)
			}
			buf := make([]byte, n)
			if err := t.rdwrInto(slaveAddr, nil, buf); err != nil {
				return err
			}
			out = buf
			return nil
		})
	})
	return out, err
}

func (t *I2CTransport) WriteRead(ctx context.Context, slaveAddr byte, write []byte, readLen int) ([]byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var out []byte
	err := withRetry(ctx, func() error {
		return withTimeout(ctx, "i2c_write_read", func(context.Context) error {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.fd < 0 {
				return perr.Transport(perr.TransportAdapterNotFound, "adapter not open", nil)
			}
			buf := make([]byte, readLen)
			if err := t.rdwrInto(slaveAddr, write, buf); err != nil {
				return err
			}
			out = buf
			return nil
		})
	})
	return out, err
}

// rdwr issues a single-message I2C_RDWR write (no read phase).
func (t *I2CTransport) rdwr(addr byte, writes [][]byte, isRead []bool) error {
	msgs := make([]i2cMsg, len(writes))
	for i, w := range writes {
		buf := w
		msgs[i] = i2cMsg{addr: uint16(addr), length: uint16(len(buf)), buf: bufPtr(buf)}
	}
	req := i2cRdwr{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(len(msgs))}
	return ioctlRdwr(t.fd, addr, &req)
}

// rdwrInto issues a combined write (optional) + read with REPEATED START,
// placing the response into resp.
func (t *I2CTransport) rdwrInto(addr byte, write []byte, resp []byte) error {
	var msgs []i2cMsg
	if len(write) > 0 {
		msgs = append(msgs, i2cMsg{addr: uint16(addr), length: uint16(len(write)), buf: bufPtr(write)})
	}
	msgs = append(msgs, i2cMsg{addr: uint16(addr), flags: i2cMsgRD, length: uint16(len(resp)), buf: bufPtr(resp)})
	req := i2cRdwr{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(len(msgs))}
	return ioctlRdwr(t.fd, addr, &req)
}

func bufPtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

func ioctlRdwr(fd int, addr byte, req *i2cRdwr) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), i2cRdwrIOCTL, uintptr(unsafe.Pointer(req))); errno != 0 {
		switch errno {
		case unix.ENXIO, unix.EREMOTEIO:
			return perr.Transport(perr.TransportNak, fmt.Sprintf("addr 0x%02x", addr), errno)
		case unix.ETIMEDOUT:
			return perr.Timeout("i2c_rdwr")
		default:
			return perr.Transport(perr.TransportBusError, fmt.Sprintf("I2C_RDWR addr 0x%02x", addr), errno)
		}
	}
	return nil
}
