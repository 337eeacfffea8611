// Package registry is the process-wide table of live device handles: open
// a transport, probe it, hand back a handle; look up or close by handle
// later. Mutations are serialized by a registry-only lock that is never
// held during I/O, matching the teacher's JSONStore debounce discipline of
// keeping the lock scope to bookkeeping, not the slow operation it guards.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/phoenixhw/phoenix/internal/events"
	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/phoenix"
	"github.com/phoenixhw/phoenix/internal/transport"
)

// Handle identifies a connected device for the lifetime of the process.
// Handles are monotonically increasing and never reused, even after
// Disconnect, so a stale handle always fails UnknownHandle rather than
// silently addressing a different device.
type Handle uint32

// LifecycleKind discriminates a LifecycleEvent.
type LifecycleKind int

const (
	DeviceConnected LifecycleKind = iota
	DeviceDisconnected
)

// LifecycleEvent is published on every successful Connect/Disconnect so a
// dashboard backend or logging sink can track the live device set without
// polling the registry.
type LifecycleEvent struct {
	Kind     LifecycleKind
	Handle   Handle
	Identity phoenix.DeviceIdentity
}

type entry struct {
	device    *phoenix.Device
	transport transport.Transport
}

// Registry owns every connected Device's transport lifecycle.
type Registry struct {
	mu      sync.Mutex
	devices map[Handle]entry
	next    Handle

	// runID is a short uuid-derived tag distinguishing this process's log
	// lines from another phoenixd instance's in aggregated operator logs;
	// it plays no role in handle allocation or lookup.
	runID string

	Events *events.Bus[LifecycleEvent]
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{
		devices: make(map[Handle]entry),
		next:    1,
		runID:   uuid.New().String()[:8],
		Events:  events.NewBus[LifecycleEvent](),
	}
}

// openTransport is transport.Open by default; tests override it to script
// a connect sequence without a real adapter.
var openTransport = transport.Open

// Connect opens a persistent transport from cfg, probes the single address
// it names, constructs a Device, and allocates a handle for it.
func (r *Registry) Connect(ctx context.Context, cfg transport.Config) (Handle, error) {
	t, err := openTransport(ctx, cfg)
	if err != nil {
		return 0, err
	}

	addr := cfg.I2C.SlaveAddress
	identity, err := phoenix.Probe(ctx, t, addr)
	if err != nil {
		t.Close()
		return 0, err
	}

	device := phoenix.New(t, addr, identity)

	r.mu.Lock()
	h := r.next
	r.next++
	r.devices[h] = entry{device: device, transport: t}
	r.mu.Unlock()

	slog.Info("registry: device connected", "run_id", r.runID, "handle", h, "identity", identity.String())
	r.Events.Publish(LifecycleEvent{Kind: DeviceConnected, Handle: h, Identity: identity})
	return h, nil
}

// Disconnect closes and removes the device behind handle. A repeat call or
// an unknown handle fails UnknownHandle.
func (r *Registry) Disconnect(handle Handle) error {
	r.mu.Lock()
	e, ok := r.devices[handle]
	if ok {
		delete(r.devices, handle)
	}
	r.mu.Unlock()

	if !ok {
		return perr.UnknownHandle(uint32(handle))
	}
	slog.Info("registry: device disconnected", "run_id", r.runID, "handle", handle)
	r.Events.Publish(LifecycleEvent{Kind: DeviceDisconnected, Handle: handle, Identity: e.device.Identity()})
	return e.transport.Close()
}

// Get returns the Device behind handle, or UnknownHandle if absent.
func (r *Registry) Get(handle Handle) (*phoenix.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.devices[handle]
	if !ok {
		return nil, perr.UnknownHandle(uint32(handle))
	}
	return e.device, nil
}

// Len reports the number of currently connected devices.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}
