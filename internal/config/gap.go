// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "fmt"

// GapKind tags a GapAdjustment.
type GapKind int

const (
	GapUnset GapKind = iota
	GapScissor
	GapBandgap
)

func (k GapKind) String() string {
	switch k {
	case GapScissor:
		return KeyScissor
	case GapBandgap:
		return KeyBandgap
	default:
		return "unset"
	}
}

// GapAdjustment is the band gap correction: none, a rigid scissor shift
// or a target gap, in eV. The zero value is GapUnset.
type GapAdjustment struct {
	kind  GapKind
	value float64
}

// Scissor returns a rigid shift of the conduction bands by v eV.
func Scissor(v float64) GapAdjustment {
	return GapAdjustment{kind: GapScissor, value: v}
}

// Bandgap returns a shift that sets the band gap to v eV.
func Bandgap(v float64) GapAdjustment {
	return GapAdjustment{kind: GapBandgap, value: v}
}

// Kind reports which variant is held.
func (g GapAdjustment) Kind() GapKind { return g.kind }

// Value returns the adjustment in eV and whether one is set.
func (g GapAdjustment) Value() (float64, bool) {
	if g.kind == GapUnset {
		return 0, false
	}
	return g.value, true
}

func (g GapAdjustment) String() string {
	if g.kind == GapUnset {
		return "unset"
	}
	return fmt.Sprintf("%s=%g eV", g.kind, g.value)
}
