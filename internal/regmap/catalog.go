package regmap

import "fmt"

// Register addresses, per spec §6 "Register layout (authoritative subset)".
const (
	AddrGlobalParam0 uint32 = 0x0000
	AddrGlobalParam1 uint32 = 0x0004
	AddrGlobalIntr   uint32 = 0x0008
	AddrResetCtrl    uint32 = 0x0010

	AddrTemperature  uint32 = 0x0100
	AddrVoltageDvdd1 uint32 = 0x0104
	AddrVoltageDvdd2 uint32 = 0x0108
	AddrVoltageDvdd3 uint32 = 0x010C
	AddrVoltageDvdd4 uint32 = 0x0110
	AddrVoltageDvdd5 uint32 = 0x0114
	AddrVoltageDvdd6 uint32 = 0x0118
	AddrVoltageDvddio uint32 = 0x011C

	AddrXAgentInfo0 uint32 = 0x4000

	AddrPPALtssmState uint32 = 0x8000
	AddrPPBLtssmState uint32 = 0xC000

	// Per-lane TX-coefficient bases, one per PCIe generation, stride 0x10.
	AddrTxCoeffGen3Base uint32 = 0x0200
	AddrTxCoeffGen4Base uint32 = 0x0280
	AddrTxCoeffGen5Base uint32 = 0x0300
	AddrTxCoeffGen6Base uint32 = 0x0380
	txCoeffStride       uint32 = 0x10

	// Per-lane error-statistics base, stride 0x20.
	AddrErrorStatsBase uint32 = 0x0500
	errorStatsStride    uint32 = 0x20

	// PRBS control/status/results blocks.
	AddrPRBSGlobalCtrl  uint32 = 0x0020
	AddrPRBSLaneCtrlBase uint32 = 0x0030 // pattern select + generator enable, per lane
	prbsLaneCtrlStride  uint32 = 0x04
	AddrPRBSStatusBase  uint32 = 0x0600 // sync_acquired, test_complete, per lane
	prbsStatusStride    uint32 = 0x10
	AddrPRBSResultsBase uint32 = 0x0700 // bit_count (u64), error_count (u64), per lane
	prbsResultsStride   uint32 = 0x20
)

const LaneCount = 16

// VoltageRailAddrs lists the seven voltage rail register addresses in the
// order they are reported in DeviceStatus.Voltages.
var VoltageRailAddrs = [7]uint32{
	AddrVoltageDvdd1, AddrVoltageDvdd2, AddrVoltageDvdd3,
	AddrVoltageDvdd4, AddrVoltageDvdd5, AddrVoltageDvdd6,
	AddrVoltageDvddio,
}

// TxCoeffBase returns the per-lane TX-coefficient block base address for the
// given data rate generation (Gen3..Gen6 only have coefficient blocks).
func TxCoeffBase(rate DataRate) (uint32, bool) {
	switch rate {
	case Gen3_8G:
		return AddrTxCoeffGen3Base, true
	case Gen4_16G:
		return AddrTxCoeffGen4Base, true
	case Gen5_32G:
		return AddrTxCoeffGen5Base, true
	case Gen6_64G:
		return AddrTxCoeffGen6Base, true
	default:
		return 0, false
	}
}

// TxCoeffAddr returns the base+stride address of lane's TX-coefficient
// register block at the given generation.
func TxCoeffAddr(rate DataRate, lane int) (uint32, bool) {
	base, ok := TxCoeffBase(rate)
	if !ok {
		return 0, false
	}
	return base + uint32(lane)*txCoeffStride, true
}

// ErrorStatsAddr returns the base+stride address of lane's error-statistics block.
func ErrorStatsAddr(lane int) uint32 {
	return AddrErrorStatsBase + uint32(lane)*errorStatsStride
}

// PRBSLaneCtrlAddr returns lane's pattern-select/generator-enable register.
func PRBSLaneCtrlAddr(lane int) uint32 {
	return AddrPRBSLaneCtrlBase + uint32(lane)*prbsLaneCtrlStride
}

// PRBSStatusAddr returns lane's sync_acquired/test_complete register.
func PRBSStatusAddr(lane int) uint32 {
	return AddrPRBSStatusBase + uint32(lane)*prbsStatusStride
}

// PRBSResultsAddr returns the base address of lane's four-register result
// block: bit_count_lo, bit_count_hi, error_count_lo, error_count_hi, each
// one register (4 bytes) apart.
func PRBSResultsAddr(lane int) uint32 {
	return AddrPRBSResultsBase + uint32(lane)*prbsResultsStride
}

// Catalog is the static, read-only register descriptor table. Every
// register touched by the device façade (§4.5) has a descriptor here.
var Catalog = buildCatalog()

func buildCatalog() map[uint32]RegisterDescriptor {
	regs := []RegisterDescriptor{
		{
			Name: "GLOBAL_PARAM0", Address: AddrGlobalParam0, WidthBytes: 4,
			Description: "Device-wide profile, bifurcation, clocking, and rate configuration.",
			Fields: []FieldDescriptor{
				{Name: "PROFILE", LSB: 0, MSB: 2, Description: "Device profile selector"},
				{Name: "BIFURCATION", LSB: 7, MSB: 12, Description: "BifurcationMode code"},
				{Name: "EEPROM_DATA_VAL", LSB: 13, MSB: 14, Description: "EEPROM data valid flags"},
				{Name: "AUTOINC", LSB: 15, MSB: 15, Description: "Register auto-increment enable"},
				{Name: "CLK_MODE", LSB: 16, MSB: 18, Description: "ClockingMode code"},
				{Name: "ENH_LINK_BEHAV", LSB: 19, MSB: 20, Description: "Enhanced link behavior"},
				{Name: "EEPROM_TIMEOUT", LSB: 21, MSB: 23, Description: "EEPROM access timeout"},
				{Name: "MAX_DATA_RATE", LSB: 24, MSB: 26, Description: "DataRate code ceiling"},
				{Name: "SRIS_PAYLOAD", LSB: 28, MSB: 30, Description: "SRIS payload configuration"},
				{Name: "PORT_ORIEN", LSB: 31, MSB: 31, Description: "Port orientation (0=normal, 1=flipped)"},
			},
		},
		{
			Name: "GLOBAL_PARAM1", Address: AddrGlobalParam1, WidthBytes: 4,
			Description: "Read-only device identification.",
			Fields: []FieldDescriptor{
				{Name: "REVISION_ID", LSB: 0, MSB: 7, Description: "Silicon revision"},
				{Name: "DEVICE_ID", LSB: 8, MSB: 15, Description: "Device ID"},
				{Name: "VENDOR_ID", LSB: 16, MSB: 31, Description: "Vendor ID (Broadcom = 0x14E4)"},
			},
		},
		{
			Name: "GLOBAL_INTR", Address: AddrGlobalIntr, WidthBytes: 4,
			Description: "Interrupt status (low nibble) and enable (bits 19:16).",
			Fields: []FieldDescriptor{
				{Name: "GLOBAL", LSB: 0, MSB: 0, Description: "Global interrupt status"},
				{Name: "EQ_PHASE_ERR", LSB: 1, MSB: 1, Description: "Equalization phase error status"},
				{Name: "PHY_PHASE_ERR", LSB: 2, MSB: 2, Description: "PHY phase error status"},
				{Name: "INTERNAL_ERR", LSB: 3, MSB: 3, Description: "Internal error status"},
				{Name: "ENABLES", LSB: 16, MSB: 19, Description: "Per-bit interrupt enables mirroring [3:0]"},
			},
		},
		{
			Name: "RESET_CTRL", Address: AddrResetCtrl, WidthBytes: 4,
			Description: "One-hot reset strobe bits.",
			Fields: []FieldDescriptor{
				{Name: "HARD", LSB: 0, MSB: 0, Description: "Hard reset"},
				{Name: "SOFT", LSB: 1, MSB: 1, Description: "Soft reset"},
				{Name: "MAC", LSB: 2, MSB: 2, Description: "MAC reset"},
				{Name: "PERST", LSB: 3, MSB: 3, Description: "PERST reset"},
				{Name: "GLOBAL_SWRST", LSB: 4, MSB: 4, Description: "Global software reset"},
			},
		},
		{
			Name: "TEMPERATURE", Address: AddrTemperature, WidthBytes: 4,
			Description: "Die temperature in signed degrees C, with a validity bit.",
			Fields: []FieldDescriptor{
				{Name: "VALUE", LSB: 0, MSB: 15, Description: "Signed temperature, degrees C"},
				{Name: "VALID", LSB: 31, MSB: 31, Description: "Reading valid"},
			},
		},
		{
			Name: "XAGENT_INFO_0", Address: AddrXAgentInfo0, WidthBytes: 4,
			Description: "Firmware version and product ID.",
			Fields: []FieldDescriptor{
				{Name: "FW_MINOR", LSB: 0, MSB: 7, Description: "Firmware minor version"},
				{Name: "FW_MAJOR", LSB: 8, MSB: 15, Description: "Firmware major version"},
				{Name: "PRODUCT_ID", LSB: 16, MSB: 31, Description: "Product ID"},
			},
		},
		{
			Name: "PPA_LTSSM_STATE", Address: AddrPPALtssmState, WidthBytes: 4,
			Description: "Pseudo Port A link training/status state.",
			Fields: []FieldDescriptor{
				{Name: "CURRENT_STATE", LSB: 0, MSB: 7, Description: "LTSSM state code"},
				{Name: "LINK_SPEED", LSB: 8, MSB: 11, Description: "DataRate code"},
				{Name: "LINK_WIDTH", LSB: 12, MSB: 16, Description: "Active lane count"},
				{Name: "FORWARDING_MODE", LSB: 17, MSB: 17, Description: "Forwarding mode active"},
			},
		},
		{
			Name: "PPB_LTSSM_STATE", Address: AddrPPBLtssmState, WidthBytes: 4,
			Description: "Pseudo Port B link training/status state (identical layout to PPA).",
			Fields: []FieldDescriptor{
				{Name: "CURRENT_STATE", LSB: 0, MSB: 7, Description: "LTSSM state code"},
				{Name: "LINK_SPEED", LSB: 8, MSB: 11, Description: "DataRate code"},
				{Name: "LINK_WIDTH", LSB: 12, MSB: 16, Description: "Active lane count"},
				{Name: "FORWARDING_MODE", LSB: 17, MSB: 17, Description: "Forwarding mode active"},
			},
		},
	}

	regs = append(regs, RegisterDescriptor{
		Name: "PRBS_GLOBAL_CTRL", Address: AddrPRBSGlobalCtrl, WidthBytes: 4,
		Description: "PRBS global start strobe.",
		Fields: []FieldDescriptor{
			{Name: "START", LSB: 0, MSB: 0, Description: "Global start/stop"},
		},
	})

	for lane := 0; lane < LaneCount; lane++ {
		regs = append(regs, RegisterDescriptor{
			Name: prbsRegName("PRBS_LANE_CTRL", lane), Address: PRBSLaneCtrlAddr(lane), WidthBytes: 4,
			Description: "Per-lane PRBS pattern select and generator enable.",
			Fields: []FieldDescriptor{
				{Name: "PATTERN", LSB: 0, MSB: 2, Description: "PRBSPattern code"},
				{Name: "GEN_ENABLE", LSB: 3, MSB: 3, Description: "Pattern generator enable"},
			},
		})
		regs = append(regs, RegisterDescriptor{
			Name: prbsRegName("PRBS_STATUS", lane), Address: PRBSStatusAddr(lane), WidthBytes: 4,
			Description: "Per-lane PRBS sync/completion status.",
			Fields: []FieldDescriptor{
				{Name: "SYNC_ACQUIRED", LSB: 0, MSB: 0, Description: "Receiver has acquired pattern sync"},
				{Name: "TEST_COMPLETE", LSB: 1, MSB: 1, Description: "Configured sample count reached"},
			},
		})
		base := PRBSResultsAddr(lane)
		regs = append(regs, RegisterDescriptor{
			Name: prbsRegName("PRBS_BIT_COUNT_LO", lane), Address: base, WidthBytes: 4,
			Description: "Low 32 bits of the 64-bit transmitted bit count.",
			Fields:      []FieldDescriptor{{Name: "VALUE", LSB: 0, MSB: 31}},
		})
		regs = append(regs, RegisterDescriptor{
			Name: prbsRegName("PRBS_BIT_COUNT_HI", lane), Address: base + 0x04, WidthBytes: 4,
			Description: "High 32 bits of the 64-bit transmitted bit count.",
			Fields:      []FieldDescriptor{{Name: "VALUE", LSB: 0, MSB: 31}},
		})
		regs = append(regs, RegisterDescriptor{
			Name: prbsRegName("PRBS_ERROR_COUNT_LO", lane), Address: base + 0x08, WidthBytes: 4,
			Description: "Low 32 bits of the 64-bit error count.",
			Fields:      []FieldDescriptor{{Name: "VALUE", LSB: 0, MSB: 31}},
		})
		regs = append(regs, RegisterDescriptor{
			Name: prbsRegName("PRBS_ERROR_COUNT_HI", lane), Address: base + 0x0C, WidthBytes: 4,
			Description: "High 32 bits of the 64-bit error count.",
			Fields:      []FieldDescriptor{{Name: "VALUE", LSB: 0, MSB: 31}},
		})
	}

	for i, addr := range VoltageRailAddrs {
		regs = append(regs, RegisterDescriptor{
			Name: voltageRailName(i), Address: addr, WidthBytes: 4,
			Description: "Voltage rail reading, millivolts.",
			Fields: []FieldDescriptor{
				{Name: "VALUE", LSB: 0, MSB: 15, Description: "Millivolts"},
			},
		})
	}

	m := make(map[uint32]RegisterDescriptor, len(regs))
	for _, r := range regs {
		if err := r.Validate(); err != nil {
			panic(err) // catalog invariant violation is a build-time bug
		}
		m[r.Address] = r
	}
	return m
}

func prbsRegName(prefix string, lane int) string {
	return fmt.Sprintf("%s_%d", prefix, lane)
}

func voltageRailName(i int) string {
	names := [7]string{"VOLTAGE_DVDD1", "VOLTAGE_DVDD2", "VOLTAGE_DVDD3", "VOLTAGE_DVDD4", "VOLTAGE_DVDD5", "VOLTAGE_DVDD6", "VOLTAGE_DVDDIO"}
	return names[i]
}

// Lookup returns the descriptor for addr, if the catalog (including any
// loaded overlay) has one.
func Lookup(addr uint32) (RegisterDescriptor, bool) {
	if ov := currentOverlay(); ov != nil {
		if r, ok := ov[addr]; ok {
			return r, true
		}
	}
	r, ok := Catalog[addr]
	return r, ok
}
