package phoenix

import (
	"context"

	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/regmap"
)

// InterruptEnables mirrors GLOBAL_INTR bits [19:16], one enable per status bit.
type InterruptEnables struct {
	Global      bool
	EqPhaseErr  bool
	PhyPhaseErr bool
	InternalErr bool
}

// Configuration is the decoded contents of GLOBAL_PARAM0 (+ GLOBAL_INTR enables).
type Configuration struct {
	BifurcationMode  regmap.BifurcationMode
	MaxDataRate      regmap.DataRate
	ClockingMode     regmap.ClockingMode
	PortOrientation  bool
	InterruptEnables InterruptEnables
}

// ConfigurationUpdate is a partial patch: a nil field means "unchanged".
// This is the enumerated-patch-record shape from spec §9 — distinct from a
// Configuration where every field carries a concrete value.
type ConfigurationUpdate struct {
	BifurcationMode  *regmap.BifurcationMode
	MaxDataRate      *regmap.DataRate
	ClockingMode     *regmap.ClockingMode
	PortOrientation  *bool
	InterruptEnables *InterruptEnables
}

// GetConfiguration reads and decodes GLOBAL_PARAM0.
func (d *Device) GetConfiguration(ctx context.Context) (Configuration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getConfigurationLocked(ctx)
}

func (d *Device) getConfigurationLocked(ctx context.Context) (Configuration, error) {
	raw, err := d.acc.ReadU32(ctx, regmap.AddrGlobalParam0)
	if err != nil {
		return Configuration{}, perr.Wrap("get_configuration: read GLOBAL_PARAM0", err)
	}
	desc, _ := regmap.Lookup(regmap.AddrGlobalParam0)
	bifField, _ := desc.Field("BIFURCATION")
	rateField, _ := desc.Field("MAX_DATA_RATE")
	clkField, _ := desc.Field("CLK_MODE")
	orienField, _ := desc.Field("PORT_ORIEN")

	intrRaw, err := d.acc.ReadU32(ctx, regmap.AddrGlobalIntr)
	if err != nil {
		return Configuration{}, perr.Wrap("get_configuration: read GLOBAL_INTR", err)
	}
	intrDesc, _ := regmap.Lookup(regmap.AddrGlobalIntr)
	enField, _ := intrDesc.Field("ENABLES")
	enables := enField.Extract(intrRaw)

	return Configuration{
		BifurcationMode: regmap.BifurcationMode(bifField.Extract(raw)),
		MaxDataRate:     regmap.DataRate(rateField.Extract(raw)),
		ClockingMode:    regmap.ClockingMode(clkField.Extract(raw)),
		PortOrientation: orienField.Extract(raw) != 0,
		InterruptEnables: InterruptEnables{
			Global:      enables&0x1 != 0,
			EqPhaseErr:  enables&0x2 != 0,
			PhyPhaseErr: enables&0x4 != 0,
			InternalErr: enables&0x8 != 0,
		},
	}, nil
}

// SetConfiguration applies a read-modify-write for only the fields present
// in update, one write per register touched (GLOBAL_PARAM0 for
// bifurcation/clocking/rate/orientation, GLOBAL_INTR for interrupt
// enables). If a transport/PEC failure occurs between the read and the
// write, the operation fails with PartialWrite(addr) and is not retried —
// callers must re-read configuration to recover (spec §4.5/§5).
func (d *Device) SetConfiguration(ctx context.Context, update ConfigurationUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	touchesParam0 := update.BifurcationMode != nil || update.MaxDataRate != nil ||
		update.ClockingMode != nil || update.PortOrientation != nil
	touchesIntr := update.InterruptEnables != nil

	if touchesParam0 {
		if err := d.rmwGlobalParam0(ctx, update); err != nil {
			return err
		}
	}
	if touchesIntr {
		if err := d.rmwGlobalIntr(ctx, update); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) rmwGlobalParam0(ctx context.Context, update ConfigurationUpdate) error {
	raw, err := d.acc.ReadU32(ctx, regmap.AddrGlobalParam0)
	if err != nil {
		return perr.Wrap("set_configuration: read GLOBAL_PARAM0", err)
	}
	desc, _ := regmap.Lookup(regmap.AddrGlobalParam0)

	if update.BifurcationMode != nil {
		f, _ := desc.Field("BIFURCATION")
		raw = f.Insert(raw, uint32(*update.BifurcationMode))
	}
	if update.MaxDataRate != nil {
		f, _ := desc.Field("MAX_DATA_RATE")
		raw = f.Insert(raw, uint32(*update.MaxDataRate))
	}
	if update.ClockingMode != nil {
		f, _ := desc.Field("CLK_MODE")
		raw = f.Insert(raw, uint32(*update.ClockingMode))
	}
	if update.PortOrientation != nil {
		f, _ := desc.Field("PORT_ORIEN")
		v := uint32(0)
		if *update.PortOrientation {
			v = 1
		}
		raw = f.Insert(raw, v)
	}

	if err := d.acc.WriteU32(ctx, regmap.AddrGlobalParam0, raw); err != nil {
		return perr.PartialWrite(regmap.AddrGlobalParam0)
	}
	return nil
}

func (d *Device) rmwGlobalIntr(ctx context.Context, update ConfigurationUpdate) error {
	raw, err := d.acc.ReadU32(ctx, regmap.AddrGlobalIntr)
	if err != nil {
		return perr.Wrap("set_configuration: read GLOBAL_INTR", err)
	}
	desc, _ := regmap.Lookup(regmap.AddrGlobalIntr)
	f, _ := desc.Field("ENABLES")

	en := update.InterruptEnables
	var v uint32
	if en.Global {
		v |= 0x1
	}
	if en.EqPhaseErr {
		v |= 0x2
	}
	if en.PhyPhaseErr {
		v |= 0x4
	}
	if en.InternalErr {
		v |= 0x8
	}
	raw = f.Insert(raw, v)

	if err := d.acc.WriteU32(ctx, regmap.AddrGlobalIntr, raw); err != nil {
		return perr.PartialWrite(regmap.AddrGlobalIntr)
	}
	return nil
}
