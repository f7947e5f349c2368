// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"

	"github.com/ManuGH/amset/internal/validate"
)

// Build merges overrides onto defaults and validates the result.
// defaults must carry every registered option. Build has no side effects.
func Build(defaults, overrides Mapping) (*Settings, error) {
	r, err := GetRegistry()
	if err != nil {
		return nil, err
	}

	merged := Mapping{}
	if err := overlay(merged, defaults, "defaults", r); err != nil {
		return nil, err
	}
	if err := overlay(merged, overrides, "overrides", r); err != nil {
		return nil, err
	}

	// (a) types
	typed, err := typeCheck(merged, r)
	if err != nil {
		return nil, err
	}

	// (b) exclusions
	if err := checkConflicts(typed); err != nil {
		return nil, err
	}

	s := newSettings(typed)

	// (c) ranges
	if err := checkRanges(s); err != nil {
		return nil, err
	}

	// (d) mechanism parameters
	if err := checkDependencies(s); err != nil {
		return nil, err
	}

	s.mechanisms = resolveMechanisms(s)
	return s, nil
}

// Load builds settings from the embedded defaults and overrides.
func Load(overrides Mapping) (*Settings, error) {
	return Build(Defaults(), overrides)
}

func checkConflicts(typed map[string]any) error {
	if typed[KeyScissor] != nil && typed[KeyBandgap] != nil {
		return &ConflictingOptionError{
			Options: []string{KeyScissor, KeyBandgap},
			Reason:  "set at most one band gap adjustment",
		}
	}
	return nil
}

func checkWorkers(value any) error {
	if n, _ := value.(int); n != -1 && n < 1 {
		return errors.New("must be -1 (all available) or at least 1")
	}
	return nil
}

func checkRanges(s *Settings) error {
	v := validate.New()

	// Accuracy knobs
	v.Positive(KeyEnergyCutoff, s.energyCutoff)
	v.Positive(KeyDosEstep, s.dosEstep)
	v.Positive(KeySymprec, s.symprec)
	v.PositiveInt(KeyInterpolationFactor, s.interpolationFactor)
	v.Positive(KeyFdTol, s.fdTol)

	// Conditions
	v.NonEmptyList(KeyDoping, s.doping)
	v.NonEmptyList(KeyTemperatures, s.temperatures)
	v.EachPositive(KeyTemperatures, s.temperatures)

	v.Custom(KeyNWorkers, s.nworkers, checkWorkers)
	v.NonNegative(KeyAcceptorCharge, s.acceptorCharge)
	v.NonNegative(KeyDonorCharge, s.donorCharge)

	if gap, ok := s.gap.Value(); ok && s.gap.Kind() == GapBandgap {
		v.Positive(KeyBandgap, gap)
	}

	if wf := s.wavefunctionCoefficients; wf != nil {
		v.NotEmpty(KeyWavefunctionCoefficients, *wf)
	}

	// Material properties, when given
	for _, p := range []struct {
		key string
		val optFloat
	}{
		{KeyHighFrequencyDielectric, s.highFrequencyDielectric},
		{KeyStaticDielectric, s.staticDielectric},
		{KeyElasticConstant, s.elasticConstant},
		{KeyPopFrequency, s.popFrequency},
		{KeyMeanFreePath, s.meanFreePath},
		{KeyConstantRelaxationTime, s.constantRelaxationTime},
	} {
		if f, ok := p.val.get(); ok {
			v.Positive(p.key, f)
		}
	}

	if v.IsValid() {
		return nil
	}
	errs := make([]error, 0, len(v.Errors()))
	for _, e := range v.Errors() {
		errs = append(errs, &RangeError{Option: e.Field, Value: e.Value, Reason: e.Message})
	}
	return joinErrors(errs)
}

func checkDependencies(s *Settings) error {
	if s.scattering.auto {
		return nil
	}
	var errs []error
	for _, m := range s.scattering.list {
		for _, key := range mechanismRequirements[m] {
			if !s.isSet(key) {
				errs = append(errs, &MissingDependentOptionError{Option: key, Mechanism: m})
			}
		}
	}
	return joinErrors(errs)
}

// resolveMechanisms expands auto to the candidates whose parameters are set.
func resolveMechanisms(s *Settings) []Mechanism {
	if !s.scattering.auto {
		return append([]Mechanism(nil), s.scattering.list...)
	}
	var out []Mechanism
	for _, m := range autoMechanisms {
		if canCalculate(s, m) {
			out = append(out, m)
		}
	}
	return out
}

func canCalculate(s *Settings, m Mechanism) bool {
	for _, key := range mechanismRequirements[m] {
		if !s.isSet(key) {
			return false
		}
	}
	return true
}

// Unwrap flattens err into its leaf errors (joined stage errors included).
func Unwrap(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, Unwrap(e)...)
		}
		return out
	}
	return []error{err}
}
