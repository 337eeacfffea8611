package regmap

import "fmt"

// DataRate is the PCIe generation/speed, per spec §6.
type DataRate uint8

const (
	Gen1_2P5G DataRate = 0
	Gen2_5G   DataRate = 1
	Gen3_8G   DataRate = 2
	Gen4_16G  DataRate = 3
	Gen5_32G  DataRate = 4
	Gen6_64G  DataRate = 5
)

func (d DataRate) String() string {
	switch d {
	case Gen1_2P5G:
		return "Gen1 2.5GT/s"
	case Gen2_5G:
		return "Gen2 5GT/s"
	case Gen3_8G:
		return "Gen3 8GT/s"
	case Gen4_16G:
		return "Gen4 16GT/s"
	case Gen5_32G:
		return "Gen5 32GT/s"
	case Gen6_64G:
		return "Gen6 64GT/s"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(d))
	}
}

// ClockingMode selects the reference clock architecture, per spec §6.
type ClockingMode uint8

const (
	CommonWoSSC ClockingMode = 0
	CommonSSC   ClockingMode = 1
	SRNSWoSSC   ClockingMode = 2
	SRISSSC     ClockingMode = 3
	SRISWoSSC   ClockingMode = 4
	SRISWoSSCLL ClockingMode = 5
)

func (c ClockingMode) String() string {
	switch c {
	case CommonWoSSC:
		return "common_wo_ssc"
	case CommonSSC:
		return "common_ssc"
	case SRNSWoSSC:
		return "srns_wo_ssc"
	case SRISSSC:
		return "sris_ssc"
	case SRISWoSSC:
		return "sris_wo_ssc"
	case SRISWoSSCLL:
		return "sris_wo_ssc_ll"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ResetType selects which one-hot bit of RESET_CTRL to assert, per spec §4.5.
type ResetType uint8

const (
	ResetHard ResetType = iota
	ResetSoft
	ResetMAC
	ResetPERST
	ResetGlobalSWRST
)

// Bit returns the RESET_CTRL bit position for this reset type.
func (r ResetType) Bit() uint {
	return uint(r)
}

func (r ResetType) String() string {
	switch r {
	case ResetHard:
		return "hard"
	case ResetSoft:
		return "soft"
	case ResetMAC:
		return "mac"
	case ResetPERST:
		return "perst"
	case ResetGlobalSWRST:
		return "global_swrst"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// PRBSPattern selects the pseudo-random bit pattern for a PRBS test.
type PRBSPattern uint8

const (
	PRBS7 PRBSPattern = iota
	PRBS9
	PRBS11
	PRBS15
	PRBS23
	PRBS31
)

func (p PRBSPattern) String() string {
	switch p {
	case PRBS7:
		return "PRBS7"
	case PRBS9:
		return "PRBS9"
	case PRBS11:
		return "PRBS11"
	case PRBS15:
		return "PRBS15"
	case PRBS23:
		return "PRBS23"
	case PRBS31:
		return "PRBS31"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

// BifurcationMode is one of 33 documented lane-partitioning schemes
// (integer codes 0..32 mapping 1:1 to the reference table).
type BifurcationMode uint8

const (
	BifurcationX16        BifurcationMode = 0
	BifurcationX8X8        BifurcationMode = 1
	BifurcationX8X4X4      BifurcationMode = 2
	BifurcationX4X4X8      BifurcationMode = 3
	BifurcationX4X4X4X4    BifurcationMode = 4
	BifurcationX8X4X2X2    BifurcationMode = 5
	BifurcationX4X2X2X8    BifurcationMode = 6
	BifurcationX2X2X4X8    BifurcationMode = 7
	BifurcationX2X2X2X2X8  BifurcationMode = 8
	BifurcationX4X2X2X4X4  BifurcationMode = 9
	BifurcationX4X4X2X2X4  BifurcationMode = 10
	BifurcationX2X2X4X4X4  BifurcationMode = 11
	BifurcationX2X2X2X2X4X4 BifurcationMode = 12
	BifurcationX4X2X2X2X2X4 BifurcationMode = 13
	BifurcationX4X4X2X2X2X2 BifurcationMode = 14
	BifurcationX2X2X2X2X2X2X4 BifurcationMode = 15
	BifurcationX4X2X2X2X2X2X2 BifurcationMode = 16
	BifurcationX2X2X4X2X2X4 BifurcationMode = 17
	BifurcationX2X2X2X2X2X2X2X2 BifurcationMode = 18
	BifurcationX1X1X1X1X1X1X1X1X1X1X1X1X1X1X1X1 BifurcationMode = 19
	BifurcationX2X1X1X2X1X1X2X1X1X2X1X1 BifurcationMode = 20
	BifurcationX2X2X1X1X1X1X2X2X1X1X1X1 BifurcationMode = 21
	BifurcationX4X1X1X1X1X4X1X1X1X1 BifurcationMode = 22
	BifurcationX8X1X1X1X1X1X1X1X1 BifurcationMode = 23
	BifurcationX16Reserved24 BifurcationMode = 24
	BifurcationX16Reserved25 BifurcationMode = 25
	BifurcationX16Reserved26 BifurcationMode = 26
	BifurcationX16Reserved27 BifurcationMode = 27
	BifurcationX16Reserved28 BifurcationMode = 28
	BifurcationX16Reserved29 BifurcationMode = 29
	BifurcationX16Reserved30 BifurcationMode = 30
	BifurcationX16Reserved31 BifurcationMode = 31
	BifurcationX16Reserved32 BifurcationMode = 32
)

var bifurcationNames = map[BifurcationMode]string{
	BifurcationX16:       "x16",
	BifurcationX8X8:      "x8x8",
	BifurcationX8X4X4:    "x8x4x4",
	BifurcationX4X4X8:    "x4x4x8",
	BifurcationX4X4X4X4:  "x4x4x4x4",
	BifurcationX8X4X2X2:  "x8x4x2x2",
	BifurcationX4X2X2X8:  "x4x2x2x8",
	BifurcationX2X2X4X8:  "x2x2x4x8",
	BifurcationX2X2X2X2X8: "x2x2x2x2x8",
	BifurcationX4X2X2X4X4: "x4x2x2x4x4",
	BifurcationX4X4X2X2X4: "x4x4x2x2x4",
	BifurcationX2X2X4X4X4: "x2x2x4x4x4",
	BifurcationX2X2X2X2X4X4: "x2x2x2x2x4x4",
	BifurcationX4X2X2X2X2X4: "x4x2x2x2x2x4",
	BifurcationX4X4X2X2X2X2: "x4x4x2x2x2x2",
	BifurcationX2X2X2X2X2X2X4: "x2x2x2x2x2x2x4",
	BifurcationX4X2X2X2X2X2X2: "x4x2x2x2x2x2x2",
	BifurcationX2X2X4X2X2X4: "x2x2x4x2x2x4",
	BifurcationX2X2X2X2X2X2X2X2: "x2x2x2x2x2x2x2x2",
	BifurcationX1X1X1X1X1X1X1X1X1X1X1X1X1X1X1X1: "x1x16",
	BifurcationX2X1X1X2X1X1X2X1X1X2X1X1: "x2x1x1-quad",
	BifurcationX2X2X1X1X1X1X2X2X1X1X1X1: "x2x2x1x1-quad",
	BifurcationX4X1X1X1X1X4X1X1X1X1: "x4x1x1x1x1-dual",
	BifurcationX8X1X1X1X1X1X1X1X1: "x8x1x1x1x1x1x1x1",
}

func (b BifurcationMode) String() string {
	if name, ok := bifurcationNames[b]; ok {
		return name
	}
	return fmt.Sprintf("reserved(%d)", uint8(b))
}

// LtssmState is the PCIe Link Training and Status State Machine current
// state, an incomplete reference table — unknown byte values surface as
// Unknown(u8) so a status UI can still render rather than failing decode.
type LtssmState struct {
	code  uint8
	known bool
}

// FwdForwarding is the LTSSM code meaning "link up and forwarding" — used to
// derive PortStatus.IsLinkUp together with the forwarding-mode bit.
const FwdForwarding uint8 = 0x04

var ltssmNames = map[uint8]string{
	0x00: "detect_quiet",
	0x01: "detect_active",
	0x02: "polling_active",
	0x03: "polling_configuration",
	0x04: "fwd_forwarding",
	0x05: "config_linkwidth_start",
	0x06: "config_linkwidth_accept",
	0x07: "config_lanenum_wait",
	0x08: "config_lanenum_accept",
	0x09: "config_complete",
	0x0A: "config_idle",
	0x0B: "recovery_rcvrlock",
	0x0C: "recovery_rcvrcfg",
	0x0D: "recovery_idle",
	0x0E: "recovery_speed",
	0x0F: "recovery_equalization_phase0",
	0x10: "recovery_equalization_phase1",
	0x11: "recovery_equalization_phase2",
	0x12: "recovery_equalization_phase3",
	0x13: "l0",
	0x14: "l0s",
	0x15: "l1_idle",
	0x16: "l1_substate",
	0x17: "l2_idle",
	0x18: "l2_transmit_wake",
	0x19: "disabled",
	0x1A: "loopback_entry",
	0x1B: "loopback_active",
	0x1C: "loopback_exit",
	0x1D: "hot_reset",
	0x1E: "polling_compliance",
	0x1F: "polling_speed",
	0x20: "config_complete_eios",
	0x21: "config_idle_eios",
	0x22: "recovery_equalization_done",
}

// NewLtssmState decodes raw into a named or Unknown LTSSM state.
func NewLtssmState(raw uint8) LtssmState {
	_, known := ltssmNames[raw]
	return LtssmState{code: raw, known: known}
}

// Code returns the raw byte value.
func (s LtssmState) Code() uint8 { return s.code }

// IsUnknown reports whether raw fell outside the documented table.
func (s LtssmState) IsUnknown() bool { return !s.known }

func (s LtssmState) String() string {
	if name, ok := ltssmNames[s.code]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%02x)", s.code)
}
