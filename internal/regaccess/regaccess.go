// Package regaccess exposes typed, alignment-checked register read/write
// primitives over the framing layer. Misalignment is a programmer error —
// it surfaces as perr.InvalidArgument, never retried.
package regaccess

import (
	"context"
	"fmt"

	"github.com/phoenixhw/phoenix/internal/framing"
	"github.com/phoenixhw/phoenix/internal/perr"
)

// Accessor wraps a Framer with alignment-checked typed register access.
type Accessor struct {
	f *framing.Framer
}

// New builds an Accessor over f.
func New(f *framing.Framer) *Accessor {
	return &Accessor{f: f}
}

func (a *Accessor) ReadU16(ctx context.Context, addr uint32) (uint16, error) {
	if addr%2 != 0 {
		return 0, perr.InvalidArgument(fmt.Sprintf("address 0x%04x is not 2-byte aligned", addr))
	}
	v, err := a.f.ReadRegister(ctx, addr, 2)
	return uint16(v), err
}

func (a *Accessor) ReadU32(ctx context.Context, addr uint32) (uint32, error) {
	if addr%4 != 0 {
		return 0, perr.InvalidArgument(fmt.Sprintf("address 0x%04x is not 4-byte aligned", addr))
	}
	return a.f.ReadRegister(ctx, addr, 4)
}

func (a *Accessor) WriteU16(ctx context.Context, addr uint32, v uint16) error {
	if addr%2 != 0 {
		return perr.InvalidArgument(fmt.Sprintf("address 0x%04x is not 2-byte aligned", addr))
	}
	return a.f.WriteRegister(ctx, addr, uint32(v), 2)
}

func (a *Accessor) WriteU32(ctx context.Context, addr uint32, v uint32) error {
	if addr%4 != 0 {
		return perr.InvalidArgument(fmt.Sprintf("address 0x%04x is not 4-byte aligned", addr))
	}
	return a.f.WriteRegister(ctx, addr, v, 4)
}
