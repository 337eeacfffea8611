package phoenix

import (
	"context"

	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/regmap"
)

// VoltageReadings holds the seven rail voltages in millivolts.
type VoltageReadings struct {
	Dvdd1, Dvdd2, Dvdd3, Dvdd4, Dvdd5, Dvdd6, Dvddio uint16
}

// InterruptStatus mirrors GLOBAL_INTR bits [3:0].
type InterruptStatus struct {
	Global       bool
	EqPhaseErr   bool
	PhyPhaseErr  bool
	InternalErr  bool
}

// LaneStatus is the per-lane training status within a PortStatus.
type LaneStatus struct {
	LaneNumber int
	RxDetect   bool
	TxEqDone   bool
	RxEqDone   bool
}

// PortStatus describes one pseudo port (PPA or PPB).
type PortStatus struct {
	CurrentLtssmState regmap.LtssmState
	CurrentLinkSpeed  regmap.DataRate
	CurrentLinkWidth  uint8
	IsLinkUp          bool
	ForwardingMode    bool
	LaneStatus        [regmap.LaneCount]LaneStatus
}

// DeviceStatus is a point-in-time snapshot built by GetStatus.
type DeviceStatus struct {
	TemperatureC      int16
	Voltages          VoltageReadings
	PPAStatus         PortStatus
	PPBStatus         PortStatus
	InterruptStatus   InterruptStatus
	IsHealthy         bool
}

// GetStatus reads TEMPERATURE, all seven voltage rails, GLOBAL_INTR, and
// both PPA/PPB LTSSM registers, under the device lock so the snapshot is
// atomic with respect to concurrent SetConfiguration calls (spec §4.5/§8).
func (d *Device) GetStatus(ctx context.Context) (DeviceStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var status DeviceStatus

	tempRaw, err := d.acc.ReadU32(ctx, regmap.AddrTemperature)
	if err != nil {
		return DeviceStatus{}, wrapStatus("read TEMPERATURE", err)
	}
	tempDesc, _ := regmap.Lookup(regmap.AddrTemperature)
	validField, _ := tempDesc.Field("VALID")
	valueField, _ := tempDesc.Field("VALUE")
	tempValid := validField.Extract(tempRaw) != 0
	if tempValid {
		status.TemperatureC = int16(valueField.Extract(tempRaw))
	} else {
		status.TemperatureC = 0
	}

	volts, err := d.readVoltages(ctx)
	if err != nil {
		return DeviceStatus{}, wrapStatus("read voltages", err)
	}
	status.Voltages = volts

	intrRaw, err := d.acc.ReadU32(ctx, regmap.AddrGlobalIntr)
	if err != nil {
		return DeviceStatus{}, wrapStatus("read GLOBAL_INTR", err)
	}
	intrDesc, _ := regmap.Lookup(regmap.AddrGlobalIntr)
	status.InterruptStatus = decodeInterrupts(intrDesc, intrRaw)

	ppa, err := d.readPortStatus(ctx, regmap.AddrPPALtssmState)
	if err != nil {
		return DeviceStatus{}, wrapStatus("read PPA status", err)
	}
	status.PPAStatus = ppa

	ppb, err := d.readPortStatus(ctx, regmap.AddrPPBLtssmState)
	if err != nil {
		return DeviceStatus{}, wrapStatus("read PPB status", err)
	}
	status.PPBStatus = ppb

	status.IsHealthy = tempValid && !status.InterruptStatus.InternalErr && status.TemperatureC < 100

	return status, nil
}

func (d *Device) readVoltages(ctx context.Context) (VoltageReadings, error) {
	var raws [7]uint16
	for i, addr := range regmap.VoltageRailAddrs {
		raw, err := d.acc.ReadU32(ctx, addr)
		if err != nil {
			return VoltageReadings{}, err
		}
		desc, _ := regmap.Lookup(addr)
		valueField, _ := desc.Field("VALUE")
		raws[i] = uint16(valueField.Extract(raw))
	}
	return VoltageReadings{
		Dvdd1: raws[0], Dvdd2: raws[1], Dvdd3: raws[2], Dvdd4: raws[3],
		Dvdd5: raws[4], Dvdd6: raws[5], Dvddio: raws[6],
	}, nil
}

func decodeInterrupts(desc regmap.RegisterDescriptor, raw uint32) InterruptStatus {
	g, _ := desc.Field("GLOBAL")
	eq, _ := desc.Field("EQ_PHASE_ERR")
	phy, _ := desc.Field("PHY_PHASE_ERR")
	internal, _ := desc.Field("INTERNAL_ERR")
	return InterruptStatus{
		Global:      g.Extract(raw) != 0,
		EqPhaseErr:  eq.Extract(raw) != 0,
		PhyPhaseErr: phy.Extract(raw) != 0,
		InternalErr: internal.Extract(raw) != 0,
	}
}

func (d *Device) readPortStatus(ctx context.Context, addr uint32) (PortStatus, error) {
	raw, err := d.acc.ReadU32(ctx, addr)
	if err != nil {
		return PortStatus{}, err
	}
	desc, _ := regmap.Lookup(addr)
	stateField, _ := desc.Field("CURRENT_STATE")
	speedField, _ := desc.Field("LINK_SPEED")
	widthField, _ := desc.Field("LINK_WIDTH")
	fwdField, _ := desc.Field("FORWARDING_MODE")

	ltssm := regmap.NewLtssmState(uint8(stateField.Extract(raw)))
	forwarding := fwdField.Extract(raw) != 0

	ps := PortStatus{
		CurrentLtssmState: ltssm,
		CurrentLinkSpeed:  regmap.DataRate(speedField.Extract(raw)),
		CurrentLinkWidth:  uint8(widthField.Extract(raw)),
		ForwardingMode:    forwarding,
		IsLinkUp:          forwarding && ltssm.Code() == regmap.FwdForwarding,
	}

	lanes, err := d.readLaneStatus(ctx, addr)
	if err != nil {
		return PortStatus{}, err
	}
	ps.LaneStatus = lanes
	return ps, nil
}

// readLaneStatus reads per-lane sync/equalization status from the
// error-statistics block's low bits, one register per lane — the per-lane
// sweep shape mirrors the teacher's unit-by-unit ReadTemps loop.
func (d *Device) readLaneStatus(ctx context.Context, portAddr uint32) ([regmap.LaneCount]LaneStatus, error) {
	var lanes [regmap.LaneCount]LaneStatus
	for lane := 0; lane < regmap.LaneCount; lane++ {
		addr := regmap.ErrorStatsAddr(lane)
		raw, err := d.acc.ReadU32(ctx, addr)
		if err != nil {
			return lanes, err
		}
		lanes[lane] = LaneStatus{
			LaneNumber: lane,
			RxDetect:   raw&0x1 != 0,
			TxEqDone:   raw&0x2 != 0,
			RxEqDone:   raw&0x4 != 0,
		}
	}
	return lanes, nil
}

func wrapStatus(op string, err error) error {
	return perr.Wrap("get_status: "+op, err)
}
