package phoenix

import (
	"context"
	"time"

	"github.com/phoenixhw/phoenix/internal/perr"
	"github.com/phoenixhw/phoenix/internal/regmap"
)

// eyeCaptureBudget bounds how long EyeDiagram blocks waiting for
// capture_valid.
const eyeCaptureBudget = 10 * time.Second

const eyeCapturePollInterval = 100 * time.Millisecond

// EyeMargins is one eye's measured opening in each direction.
type EyeMargins struct {
	LeftMarginMUI  float64
	RightMarginMUI float64
	UpperMarginMV  int16
	LowerMarginMV  int16
}

// HorizontalOpeningMUI is the sum of left and right margins.
func (m EyeMargins) HorizontalOpeningMUI() float64 {
	return m.LeftMarginMUI + m.RightMarginMUI
}

// VerticalOpeningMV is the sum of upper and lower margins.
func (m EyeMargins) VerticalOpeningMV() int16 {
	return m.UpperMarginMV + m.LowerMarginMV
}

// EyeCapture is the result of a single-shot eye-diagram capture on one lane.
// LowerEye and UpperEye are nil for any rate below Gen6_64G, which reports
// only a single combined eye.
type EyeCapture struct {
	LaneNumber   int
	CaptureValid bool
	MiddleEye    EyeMargins
	LowerEye     *EyeMargins
	UpperEye     *EyeMargins
}

// eyeCaptureAddr locates the per-lane eye-capture control/result block. The
// block sits just past the PRBS results region, sharing its per-lane stride
// so the two diagnostic features can't alias each other's registers.
func eyeCaptureAddr(lane int) uint32 {
	return regmap.AddrPRBSResultsBase + uint32(regmap.LaneCount)*0x20 + uint32(lane)*0x20
}

// EyeDiagram triggers a single-shot capture on lane at rate and blocks for
// up to 10 seconds waiting for capture_valid (spec §4.5).
func (d *Device) EyeDiagram(ctx context.Context, lane int, rate regmap.DataRate) (EyeCapture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if lane < 0 || lane >= regmap.LaneCount {
		return EyeCapture{}, perr.InvalidArgument("lane out of range")
	}

	base := eyeCaptureAddr(lane)
	const ctrlOffset = 0x00
	const validOffset = 0x04
	const middleOffset = 0x08
	const lowerOffset = 0x0C
	const upperOffset = 0x10

	if err := d.acc.WriteU32(ctx, base+ctrlOffset, uint32(rate)|0x80000000); err != nil {
		return EyeCapture{}, perr.Wrap("eye_diagram: trigger capture", err)
	}

	deadline := time.Now().Add(eyeCaptureBudget)
	for {
		validRaw, err := d.acc.ReadU32(ctx, base+validOffset)
		if err != nil {
			return EyeCapture{}, perr.Wrap("eye_diagram: read capture_valid", err)
		}
		if validRaw&0x1 != 0 {
			break
		}
		if time.Now().After(deadline) {
			return EyeCapture{}, perr.Timeout("eye_diagram")
		}
		select {
		case <-time.After(eyeCapturePollInterval):
		case <-ctx.Done():
			return EyeCapture{}, ctx.Err()
		}
	}

	middleRaw, err := d.acc.ReadU32(ctx, base+middleOffset)
	if err != nil {
		return EyeCapture{}, perr.Wrap("eye_diagram: read middle eye", err)
	}
	capture := EyeCapture{
		LaneNumber:   lane,
		CaptureValid: true,
		MiddleEye:    decodeEyeMargins(middleRaw),
	}

	if rate == regmap.Gen6_64G {
		lowerRaw, err := d.acc.ReadU32(ctx, base+lowerOffset)
		if err != nil {
			return EyeCapture{}, perr.Wrap("eye_diagram: read lower eye", err)
		}
		upperRaw, err := d.acc.ReadU32(ctx, base+upperOffset)
		if err != nil {
			return EyeCapture{}, perr.Wrap("eye_diagram: read upper eye", err)
		}
		lower := decodeEyeMargins(lowerRaw)
		upper := decodeEyeMargins(upperRaw)
		capture.LowerEye = &lower
		capture.UpperEye = &upper
	}

	return capture, nil
}

// decodeEyeMargins unpacks a packed eye-margin register: left/right margins
// as 8-bit counts of 1/64 UI, converted to milli-UI, and upper/lower margins
// in mV (signed 8 bits each).
func decodeEyeMargins(raw uint32) EyeMargins {
	left := uint8(raw & 0xFF)
	right := uint8((raw >> 8) & 0xFF)
	upper := int8(uint8((raw >> 16) & 0xFF))
	lower := int8(uint8((raw >> 24) & 0xFF))
	return EyeMargins{
		LeftMarginMUI:  float64(left) * 1000.0 / 64.0,
		RightMarginMUI: float64(right) * 1000.0 / 64.0,
		UpperMarginMV:  int16(upper),
		LowerMarginMV:  int16(lower),
	}
}
