// Package discovery sweeps a set of candidate slave addresses looking for
// live retimers, grounded on the teacher's profile.Detect/detectUnit
// unit-by-unit scan: one transient connection per candidate, closed before
// moving to the next, with no-ACK treated as absence rather than failure.
package discovery

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/phoenix"
	"github.com/phoenixhw/phoenix/internal/transport"
)

// Discover probes each address in addresses, in ascending order, over a
// transient transport opened from cfg. A NAK or PEC error at an address is
// treated as "nothing there" and the scan continues; any other transport
// error aborts the scan and is returned to the caller (spec §4.6).
//
// Each call is tagged with a uuid-derived session ID used only to correlate
// this sweep's log lines with each other in aggregated operator logs.
func Discover(ctx context.Context, cfg transport.Config, addresses []uint8) ([]phoenix.DeviceIdentity, error) {
	session := uuid.New().String()[:8]
	sorted := append([]uint8(nil), addresses...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	slog.Info("discovery: sweep starting", "session", session, "candidates", len(sorted))

	var found []phoenix.DeviceIdentity
	for _, addr := range sorted {
		identity, ok, err := probeOne(ctx, cfg, addr)
		if err != nil {
			slog.Error("discovery: sweep aborted", "session", session, "addr", addr, "err", err)
			return found, err
		}
		if ok {
			slog.Info("discovery: device found", "session", session, "addr", addr, "identity", identity.String())
			found = append(found, identity)
		}
	}
	slog.Info("discovery: sweep complete", "session", session, "found", len(found))
	return found, nil
}

// openTransport is transport.Open by default; tests override it to script
// per-address responses without a real adapter.
var openTransport = transport.Open

func probeOne(ctx context.Context, cfg transport.Config, addr uint8) (phoenix.DeviceIdentity, bool, error) {
	t, err := openTransport(ctx, cfg.WithSlaveAddress(addr))
	if err != nil {
		if isSkippable(err) {
			return phoenix.DeviceIdentity{}, false, nil
		}
		return phoenix.DeviceIdentity{}, false, err
	}
	defer t.Close()

	identity, err := phoenix.Probe(ctx, t, addr)
	if err != nil {
		if isSkippable(err) {
			return phoenix.DeviceIdentity{}, false, nil
		}
		return phoenix.DeviceIdentity{}, false, err
	}
	return identity, true, nil
}

// isSkippable reports whether err represents "no device at this address"
// rather than a transport-level failure worth aborting the scan over.
func isSkippable(err error) bool {
	pe, ok := err.(*perr.Error)
	if !ok {
		return false
	}
	switch pe.Kind {
	case perr.KindDeviceNotFound, perr.KindPecError:
		return true
	case perr.KindTransportError:
		return pe.TransportKind == perr.TransportNak
	default:
		return false
	}
}
