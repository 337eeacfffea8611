package phoenix

import (
	"sync"

	"github.com/phoenixhw/phoenix/internal/framing"
	"github.com/phoenixhw/phoenix/internal/regaccess"
	"github.com/phoenixhw/phoenix/internal/transport"
)

// Device is a live handle: one transport, one slave address, one identity,
// and a single lock serializing every register transaction — the teacher's
// Controller.mu discipline applied to a retimer instead of an audio state
// machine. The lock is held for the full duration of a multi-register
// operation (RMW, status snapshot) so concurrent callers never observe an
// interleaved partial update (spec §5).
type Device struct {
	mu sync.Mutex

	transport    transport.Transport
	acc          *regaccess.Accessor
	slaveAddress byte
	identity     DeviceIdentity

	prbs prbsState
}

// New wraps an already-open Transport into a Device. The registry is the
// only caller that constructs a Device directly — it owns transport
// lifecycle (open at Connect, close at Disconnect).
func New(t transport.Transport, slaveAddress byte, identity DeviceIdentity) *Device {
	return &Device{
		transport:    t,
		acc:          regaccess.New(framing.New(t, slaveAddress)),
		slaveAddress: slaveAddress,
		identity:     identity,
		prbs:         newPRBSState(),
	}
}

// Identity returns the device's immutable identity.
func (d *Device) Identity() DeviceIdentity { return d.identity }

// framer exposes the underlying Framer for façade code that needs raw
// register access alongside the typed Accessor (e.g. 16-bit lane fields).
func (d *Device) framer() *framing.Framer {
	return framing.New(d.transport, d.slaveAddress)
}
