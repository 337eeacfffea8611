// Package phoenix is the device façade: it composes register reads/writes
// from regaccess/regmap over a transport.Transport into the high-level
// operations an operator or external dashboard calls — status aggregation,
// configuration RMW, reset sequencing, PRBS lifecycle, and eye-diagram
// capture (spec §4.5). It is the direct analog of the teacher's
// controller.Controller: one struct, one lock, multi-register operations
// that must appear atomic.
package phoenix

import (
	"context"
	"fmt"

	"github.com/phoenixhw/phoenix/internal/framing"
	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/regaccess"
	"github.com/phoenixhw/phoenix/internal/regmap"
	"github.com/phoenixhw/phoenix/internal/transport"
)

// BroadcomVendorID is the only vendor ID discovery/probe accepts.
const BroadcomVendorID uint16 = 0x14E4

// DeviceIdentity is immutable once constructed by Probe.
type DeviceIdentity struct {
	VendorID      uint16
	DeviceID      uint8
	RevisionID    uint8
	FirmwareMajor uint8
	FirmwareMinor uint8
	MaxSpeed      regmap.DataRate
	ProductHandle uint32 // assigned by the registry at connect time; 0 until then
	ProductID     uint16
	DeviceAddress uint8 // I2C only; 0 for UART
}

// Probe reads GLOBAL_PARAM1 and, if the vendor ID matches, XAGENT_INFO_0,
// and returns the resulting identity. Used by both discovery (§4.6) and the
// registry's connect-time single-address probe (§4.7).
func Probe(ctx context.Context, t transport.Transport, slaveAddress byte) (DeviceIdentity, error) {
	acc := regaccess.New(framing.New(t, slaveAddress))

	param1, err := acc.ReadU32(ctx, regmap.AddrGlobalParam1)
	if err != nil {
		return DeviceIdentity{}, err
	}

	desc, _ := regmap.Lookup(regmap.AddrGlobalParam1)
	vendorField, _ := desc.Field("VENDOR_ID")
	vendorID := uint16(vendorField.Extract(param1))
	if vendorID != BroadcomVendorID {
		return DeviceIdentity{}, perr.DeviceNotFound(slaveAddress)
	}

	revField, _ := desc.Field("REVISION_ID")
	devField, _ := desc.Field("DEVICE_ID")

	xagent, err := acc.ReadU32(ctx, regmap.AddrXAgentInfo0)
	if err != nil {
		return DeviceIdentity{}, perr.Wrap("probe: read XAGENT_INFO_0", err)
	}
	xdesc, _ := regmap.Lookup(regmap.AddrXAgentInfo0)
	majorField, _ := xdesc.Field("FW_MAJOR")
	minorField, _ := xdesc.Field("FW_MINOR")
	productField, _ := xdesc.Field("PRODUCT_ID")

	return DeviceIdentity{
		VendorID:      vendorID,
		DeviceID:      uint8(devField.Extract(param1)),
		RevisionID:    uint8(revField.Extract(param1)),
		FirmwareMajor: uint8(majorField.Extract(xagent)),
		FirmwareMinor: uint8(minorField.Extract(xagent)),
		ProductID:     uint16(productField.Extract(xagent)),
		DeviceAddress: slaveAddress,
	}, nil
}

func (d DeviceIdentity) String() string {
	return fmt.Sprintf("vendor=0x%04x device=0x%02x rev=0x%02x fw=%d.%d product=0x%04x addr=0x%02x",
		d.VendorID, d.DeviceID, d.RevisionID, d.FirmwareMajor, d.FirmwareMinor, d.ProductID, d.DeviceAddress)
}
