// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"strings"
)

// Mechanism is a scattering mechanism selectable through scattering_type.
type Mechanism string

const (
	ACD Mechanism = "ACD" // acoustic deformation potential
	PIE Mechanism = "PIE" // piezoelectric
	IMP Mechanism = "IMP" // ionized impurity
	DIS Mechanism = "DIS" // charged dislocation
	POP Mechanism = "POP" // polar optical phonon
	CRT Mechanism = "CRT" // constant relaxation time
	MFP Mechanism = "MFP" // mean free path
)

// scatteringAuto selects every mechanism whose parameters are present.
const scatteringAuto = "auto"

// Order matters: the first missing option is reported first.
var mechanismRequirements = map[Mechanism][]string{
	ACD: {KeyDeformationPotential, KeyElasticConstant},
	PIE: {KeyPiezoelectricCoefficient, KeyHighFrequencyDielectric},
	IMP: {KeyStaticDielectric, KeyAcceptorCharge, KeyDonorCharge},
	DIS: {KeyStaticDielectric},
	POP: {KeyPopFrequency, KeyHighFrequencyDielectric, KeyStaticDielectric},
	CRT: {KeyConstantRelaxationTime},
	MFP: {KeyMeanFreePath},
}

var mechanismDescriptions = map[Mechanism]string{
	ACD: "acoustic deformation potential",
	PIE: "piezoelectric",
	IMP: "ionized impurity",
	DIS: "charged dislocation",
	POP: "polar optical phonon",
	CRT: "constant relaxation time",
	MFP: "mean free path",
}

// allMechanisms is the canonical ordering used for resolution and output.
var allMechanisms = []Mechanism{ACD, PIE, IMP, DIS, POP, CRT, MFP}

// autoMechanisms are the candidates considered when scattering_type is auto.
var autoMechanisms = []Mechanism{ACD, PIE, IMP, DIS, POP}

// AllMechanisms returns every known mechanism in canonical order.
func AllMechanisms() []Mechanism {
	return append([]Mechanism(nil), allMechanisms...)
}

// ParseMechanism parses a mechanism name case-insensitively.
func ParseMechanism(s string) (Mechanism, error) {
	m := Mechanism(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := mechanismRequirements[m]; !ok {
		return "", fmt.Errorf("unknown scattering mechanism %q", s)
	}
	return m, nil
}

// Requires lists the options the mechanism needs.
func (m Mechanism) Requires() []string {
	return append([]string(nil), mechanismRequirements[m]...)
}

// Description returns the long name of the mechanism.
func (m Mechanism) Description() string {
	if d, ok := mechanismDescriptions[m]; ok {
		return d
	}
	return "unknown"
}

func (m Mechanism) String() string { return string(m) }

// FileFormat selects the serialization of calculation results.
type FileFormat string

const (
	FormatJSON FileFormat = "json"
	FormatYAML FileFormat = "yaml"
	FormatDat  FileFormat = "dat"
)

var fileFormats = []string{string(FormatJSON), string(FormatYAML), string(FormatDat)}

// Extension returns the file suffix for the format, including the dot.
func (f FileFormat) Extension() string { return "." + string(f) }

func (f FileFormat) String() string { return string(f) }

// KpointPolicy controls the handling of zero-weighted k-points in the
// input band structure.
type KpointPolicy string

const (
	KpointsKeep   KpointPolicy = "keep"
	KpointsDrop   KpointPolicy = "drop"
	KpointsPrefer KpointPolicy = "prefer"
)

var kpointPolicies = []string{string(KpointsKeep), string(KpointsDrop), string(KpointsPrefer)}

func (p KpointPolicy) String() string { return string(p) }
