package phoenix

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/regmap"
)

// resultsCacheTTL bounds how often GetPRBSResults re-issues a full per-lane
// register sweep; repeated polling within the window gets the cached
// snapshot instead. Mirrors JSONStore's time.AfterFunc debounce shape,
// applied to a read cache rather than a deferred write.
const resultsCacheTTL = 200 * time.Millisecond

// PRBSState is the per-device PRBS test state machine (spec §4.5/§8):
// Idle|Stopped -> Configured -> Running -> Stopped.
type PRBSState int

const (
	PRBSIdle PRBSState = iota
	PRBSConfigured
	PRBSRunning
	PRBSStopped
)

func (s PRBSState) String() string {
	switch s {
	case PRBSIdle:
		return "idle"
	case PRBSConfigured:
		return "configured"
	case PRBSRunning:
		return "running"
	case PRBSStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// PRBSConfig describes a test to start across one or more lanes.
type PRBSConfig struct {
	Pattern regmap.PRBSPattern
	Rate    regmap.DataRate
	Lanes   []int
	Samples uint32
}

// PRBSLaneStatus is one lane's sync/completion flags, valid in any state.
type PRBSLaneStatus struct {
	LaneNumber   int
	SyncAcquired bool
	TestComplete bool
}

// PRBSStatus is the façade-wide snapshot returned by GetPRBSStatus.
type PRBSStatus struct {
	State PRBSState
	Lanes []PRBSLaneStatus
}

// PRBSResult is one lane's accumulated bit/error counts and derived BER.
type PRBSResult struct {
	LaneNumber int
	BitCount   uint64
	ErrorCount uint64
	BERString  string
}

// prbsState holds the façade's in-memory PRBS bookkeeping. It is guarded by
// Device.mu along with every other piece of per-device state.
type prbsState struct {
	state PRBSState
	lanes []int

	resultsCache      []PRBSResult
	resultsCacheValid bool
	resultsCacheTimer *time.Timer
}

// invalidateResultsCache drops the cached results snapshot, if any. Called
// whenever the test configuration changes underneath it (start/stop).
func (s *prbsState) invalidateResultsCache() {
	if s.resultsCacheTimer != nil {
		s.resultsCacheTimer.Stop()
		s.resultsCacheTimer = nil
	}
	s.resultsCacheValid = false
	s.resultsCache = nil
}

func newPRBSState() prbsState {
	return prbsState{state: PRBSIdle}
}

// StartPRBS configures and starts a test across config.Lanes. Allowed from
// Idle or Stopped; transitions Configured -> Running once the global start
// bit is asserted.
func (d *Device) StartPRBS(ctx context.Context, config PRBSConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.prbs.state == PRBSRunning {
		return perr.InvalidArgument("prbs already running")
	}
	if len(config.Lanes) == 0 {
		return perr.InvalidArgument("prbs config has no lanes")
	}
	for _, lane := range config.Lanes {
		if lane < 0 || lane >= regmap.LaneCount {
			return perr.InvalidArgument(fmt.Sprintf("lane %d out of range", lane))
		}
	}

	for _, lane := range config.Lanes {
		addr := regmap.PRBSLaneCtrlAddr(lane)
		desc, _ := regmap.Lookup(addr)
		patternField, _ := desc.Field("PATTERN")
		enableField, _ := desc.Field("GEN_ENABLE")
		var raw uint32
		raw = patternField.Insert(raw, uint32(config.Pattern))
		raw = enableField.Insert(raw, 1)
		if err := d.acc.WriteU32(ctx, addr, raw); err != nil {
			return perr.Wrap("start_prbs: write lane ctrl", err)
		}
	}
	d.prbs.state = PRBSConfigured
	d.prbs.lanes = append([]int(nil), config.Lanes...)
	d.prbs.invalidateResultsCache()

	globalDesc, _ := regmap.Lookup(regmap.AddrPRBSGlobalCtrl)
	startField, _ := globalDesc.Field("START")
	raw := startField.Insert(0, 1)
	if err := d.acc.WriteU32(ctx, regmap.AddrPRBSGlobalCtrl, raw); err != nil {
		return perr.Wrap("start_prbs: assert global start", err)
	}
	d.prbs.state = PRBSRunning
	return nil
}

// GetPRBSStatus reports current state and per-lane sync/completion flags.
// Allowed in any state; lanes outside the last configured set report false.
func (d *Device) GetPRBSStatus(ctx context.Context) (PRBSStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	lanes := d.prbs.lanes
	if lanes == nil {
		return PRBSStatus{State: d.prbs.state}, nil
	}

	out := make([]PRBSLaneStatus, 0, len(lanes))
	for _, lane := range lanes {
		addr := regmap.PRBSStatusAddr(lane)
		raw, err := d.acc.ReadU32(ctx, addr)
		if err != nil {
			return PRBSStatus{}, perr.Wrap("get_prbs_status: read lane status", err)
		}
		desc, _ := regmap.Lookup(addr)
		syncField, _ := desc.Field("SYNC_ACQUIRED")
		doneField, _ := desc.Field("TEST_COMPLETE")
		out = append(out, PRBSLaneStatus{
			LaneNumber:   lane,
			SyncAcquired: syncField.Extract(raw) != 0,
			TestComplete: doneField.Extract(raw) != 0,
		})
	}
	return PRBSStatus{State: d.prbs.state, Lanes: out}, nil
}

// GetPRBSResults reads per-lane bit/error counts. Only valid in Running or
// Stopped; Idle or Configured fails InvalidArgument since no test has run.
func (d *Device) GetPRBSResults(ctx context.Context) ([]PRBSResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.prbs.state != PRBSRunning && d.prbs.state != PRBSStopped {
		return nil, perr.InvalidArgument("prbs not started")
	}

	if d.prbs.resultsCacheValid {
		return append([]PRBSResult(nil), d.prbs.resultsCache...), nil
	}

	results := make([]PRBSResult, 0, len(d.prbs.lanes))
	for _, lane := range d.prbs.lanes {
		base := regmap.PRBSResultsAddr(lane)
		bitLo, err := d.acc.ReadU32(ctx, base)
		if err != nil {
			return nil, perr.Wrap("get_prbs_results: read bit count lo", err)
		}
		bitHi, err := d.acc.ReadU32(ctx, base+0x04)
		if err != nil {
			return nil, perr.Wrap("get_prbs_results: read bit count hi", err)
		}
		errLo, err := d.acc.ReadU32(ctx, base+0x08)
		if err != nil {
			return nil, perr.Wrap("get_prbs_results: read error count lo", err)
		}
		errHi, err := d.acc.ReadU32(ctx, base+0x0C)
		if err != nil {
			return nil, perr.Wrap("get_prbs_results: read error count hi", err)
		}

		bitCount := uint64(bitHi)<<32 | uint64(bitLo)
		errorCount := uint64(errHi)<<32 | uint64(errLo)

		results = append(results, PRBSResult{
			LaneNumber: lane,
			BitCount:   bitCount,
			ErrorCount: errorCount,
			BERString:  berString(errorCount, bitCount),
		})
	}

	d.prbs.resultsCache = append([]PRBSResult(nil), results...)
	d.prbs.resultsCacheValid = true
	d.prbs.resultsCacheTimer = time.AfterFunc(resultsCacheTTL, func() {
		d.mu.Lock()
		d.prbs.resultsCacheValid = false
		d.prbs.resultsCache = nil
		d.mu.Unlock()
	})

	return results, nil
}

// StopPRBS clears the global start bit. Allowed only from Running.
func (d *Device) StopPRBS(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.prbs.state != PRBSRunning {
		return perr.InvalidArgument("prbs not running")
	}

	globalDesc, _ := regmap.Lookup(regmap.AddrPRBSGlobalCtrl)
	startField, _ := globalDesc.Field("START")
	raw := startField.Insert(0, 0)
	if err := d.acc.WriteU32(ctx, regmap.AddrPRBSGlobalCtrl, raw); err != nil {
		return perr.Wrap("stop_prbs: clear global start", err)
	}
	d.prbs.state = PRBSStopped
	d.prbs.invalidateResultsCache()
	return nil
}

// berString formats a bit error rate as "< 1e-15" when error-free, otherwise
// as error_count/bit_count in 3-significant-figure scientific notation.
func berString(errorCount, bitCount uint64) string {
	if errorCount == 0 {
		return "< 1e-15"
	}
	if bitCount == 0 {
		return "< 1e-15"
	}
	ber := float64(errorCount) / float64(bitCount)
	return formatSigFigs(ber, 3)
}

func formatSigFigs(v float64, sigFigs int) string {
	exp := int(math.Floor(math.Log10(math.Abs(v))))
	mantissa := v / math.Pow(10, float64(exp))
	rounded := math.Round(mantissa*math.Pow(10, float64(sigFigs-1))) / math.Pow(10, float64(sigFigs-1))
	if rounded >= 10 {
		rounded /= 10
		exp++
	}
	return fmt.Sprintf("%.*fe%+03d", sigFigs-1, rounded, exp)
}
