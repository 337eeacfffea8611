package regmap

import "fmt"

// FieldDescriptor names one bit range within a register.
type FieldDescriptor struct {
	Name        string
	LSB         uint
	MSB         uint
	Description string
}

// Extract returns the field's value out of a raw register value.
func (f FieldDescriptor) Extract(raw uint32) uint32 {
	return extract(raw, f.LSB, f.MSB)
}

// Insert returns raw with the field's bits replaced by v. v is masked to the
// field's width — callers that need bounds checking should use InsertChecked.
func (f FieldDescriptor) Insert(raw uint32, v uint32) uint32 {
	return insert(raw, f.LSB, f.MSB, v)
}

// InsertChecked is like Insert but fails if v does not fit in the field width.
func (f FieldDescriptor) InsertChecked(raw uint32, v uint32) (uint32, error) {
	width := f.MSB - f.LSB + 1
	max := uint32(1)<<width - 1
	if v > max {
		return 0, fmt.Errorf("value %d exceeds field %q width (%d bits, max %d)", v, f.Name, width, max)
	}
	return insert(raw, f.LSB, f.MSB, v), nil
}

func extract(raw uint32, lsb, msb uint) uint32 {
	width := msb - lsb + 1
	mask := uint32(1)<<width - 1
	return (raw >> lsb) & mask
}

func insert(raw uint32, lsb, msb uint, v uint32) uint32 {
	width := msb - lsb + 1
	mask := (uint32(1)<<width - 1) << lsb
	return (raw &^ mask) | ((v << lsb) & mask)
}

// RegisterDescriptor is a static, read-only description of one register.
type RegisterDescriptor struct {
	Name        string
	Address     uint32
	WidthBytes  int // 2 or 4
	Description string
	Fields      []FieldDescriptor // ordered ascending by LSB, non-overlapping
}

// Field looks up a field by name, or returns (zero, false).
func (r RegisterDescriptor) Field(name string) (FieldDescriptor, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// Validate checks the invariant that fields are in range, non-overlapping,
// and sorted ascending by LSB — run once at catalog construction.
func (r RegisterDescriptor) Validate() error {
	widthBits := uint(r.WidthBytes * 8)
	prevMSB := -1
	for _, f := range r.Fields {
		if f.LSB > f.MSB {
			return fmt.Errorf("register %s field %s: lsb %d > msb %d", r.Name, f.Name, f.LSB, f.MSB)
		}
		if f.MSB >= widthBits {
			return fmt.Errorf("register %s field %s: msb %d >= width %d", r.Name, f.Name, f.MSB, widthBits)
		}
		if int(f.LSB) <= prevMSB {
			return fmt.Errorf("register %s field %s: overlaps previous field (lsb %d <= prior msb %d)", r.Name, f.Name, f.LSB, prevMSB)
		}
		prevMSB = int(f.MSB)
	}
	return nil
}
