package phoenix

import "github.com/phoenixhw/phoenix/internal/perr"

// ELA runs an Error Log Analyzer capture. Not implemented by current
// firmware — always fails UnsupportedOperation (spec §1 Non-goals).
func (d *Device) ELA() error {
	return perr.Unsupported("ELA")
}

// BELA runs a Bit Error Location Analyzer capture. Not implemented by
// current firmware — always fails UnsupportedOperation.
func (d *Device) BELA() error {
	return perr.Unsupported("BELA")
}

// LinkCAT runs a Link Characterization And Test sweep. Not implemented by
// current firmware — always fails UnsupportedOperation.
func (d *Device) LinkCAT() error {
	return perr.Unsupported("LinkCAT")
}
