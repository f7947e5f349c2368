// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	r := mustRegistry()

	tests := []struct {
		name    string
		key     string
		raw     any
		want    any
		wantErr bool
	}{
		// lists
		{"doping comma string", KeyDoping, "1e16, -1e17", []float64{1e16, -1e17}, false},
		{"doping scalar", KeyDoping, 1e18, []float64{1e18}, false},
		{"doping mixed list", KeyDoping, []any{1, 2.5}, []float64{1, 2.5}, false},
		{"doping bad element", KeyDoping, []any{1, "x"}, nil, true},
		{"doping bad string", KeyDoping, "1e16,,2", nil, true},
		{"doping null", KeyDoping, nil, nil, true},
		{"temperatures int slice", KeyTemperatures, []int{300, 400}, []float64{300, 400}, false},
		{"temperatures empty", KeyTemperatures, []any{}, []float64{}, false},
		{"doping NaN element", KeyDoping, []any{1e16, math.NaN()}, nil, true},
		{"doping float64 slice NaN", KeyDoping, []float64{math.NaN()}, nil, true},
		{"doping infinite string", KeyDoping, "1e16, inf", nil, true},
		{"doping infinite scalar", KeyDoping, math.Inf(-1), nil, true},

		// integers
		{"int", KeyInterpolationFactor, 5, 5, false},
		{"int64", KeyAcceptorCharge, int64(2), 2, false},
		{"integral float", KeyInterpolationFactor, 5.0, 5, false},
		{"fractional float", KeyInterpolationFactor, 5.5, nil, true},
		{"int as string", KeyInterpolationFactor, "5", nil, true},
		{"int as bool", KeyNWorkers, true, nil, true},
		{"huge uint", KeyNWorkers, uint64(math.MaxUint64), nil, true},

		// reals
		{"float from int", KeyEnergyCutoff, 2, 2.0, false},
		{"float as string", KeyEnergyCutoff, "2", nil, true},
		{"float null", KeyEnergyCutoff, nil, nil, true},
		{"optional null", KeyScissor, nil, nil, false},
		{"optional value", KeyScissor, 0.25, 0.25, false},
		{"optional string", KeyScissor, "0.1", nil, true},
		{"float NaN", KeyEnergyCutoff, math.NaN(), nil, true},
		{"optional NaN", KeyScissor, math.NaN(), nil, true},
		{"optional infinite", KeyDeformationPotential, math.Inf(1), nil, true},

		// booleans
		{"bool", KeySOC, true, true, false},
		{"bool as string", KeySOC, "true", nil, true},
		{"bool as int", KeySOC, 1, nil, true},

		// strings
		{"path", KeyWavefunctionCoefficients, "coeffs.h5", "coeffs.h5", false},
		{"path null", KeyWavefunctionCoefficients, nil, nil, false},
		{"path number", KeyWavefunctionCoefficients, 5, nil, true},

		// enums
		{"file format", KeyFileFormat, "YAML", FormatYAML, false},
		{"file format unknown", KeyFileFormat, "xml", nil, true},
		{"file format number", KeyFileFormat, 1, nil, true},
		{"kpoints", KeyZeroWeightedKpoints, "drop", KpointsDrop, false},
		{"kpoints unknown", KeyZeroWeightedKpoints, "ignore", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerce(r.ByKey[tt.key], tt.raw)
			if tt.wantErr {
				var mismatch *TypeMismatchError
				require.True(t, errors.As(err, &mismatch), "want TypeMismatchError, got %v", err)
				assert.Equal(t, tt.key, mismatch.Option)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild_NonFiniteIsTypeMismatch(t *testing.T) {
	_, err := Load(Mapping{
		KeyScissor:              math.NaN(),
		KeyDoping:               []any{math.NaN()},
		KeyDeformationPotential: ParseValue(".inf"),
	})
	require.Error(t, err)
	assert.Equal(t, KindTypeMismatch, KindOf(err))

	leaves := Unwrap(err)
	require.Len(t, leaves, 3)
	for _, leaf := range leaves {
		var mismatch *TypeMismatchError
		require.True(t, errors.As(leaf, &mismatch), "got %v", leaf)
		assert.Contains(t, mismatch.Reason, "not finite")
	}
}

func TestCoerce_Mechanisms(t *testing.T) {
	entry := mustRegistry().ByKey[KeyScatteringType]

	tests := []struct {
		name    string
		raw     any
		auto    bool
		want    []Mechanism
		wantErr string
	}{
		{name: "auto", raw: "auto", auto: true},
		{name: "auto upper case", raw: "AUTO", auto: true},
		{name: "auto in list", raw: []any{"auto"}, auto: true},
		{name: "single", raw: "pop", want: []Mechanism{POP}},
		{name: "comma string", raw: "acd, IMP", want: []Mechanism{ACD, IMP}},
		{name: "list", raw: []any{"ACD", "PIE", "CRT"}, want: []Mechanism{ACD, PIE, CRT}},
		{name: "string slice", raw: []string{"DIS"}, want: []Mechanism{DIS}},
		{name: "duplicates dropped", raw: []any{"ACD", "acd", "POP"}, want: []Mechanism{ACD, POP}},
		{name: "auto mixed", raw: []any{"auto", "ACD"}, wantErr: "auto cannot be combined"},
		{name: "unknown mechanism", raw: "XYZ", wantErr: "unknown scattering mechanism"},
		{name: "empty list", raw: []any{}, wantErr: "no scattering mechanisms"},
		{name: "blank string", raw: " ", wantErr: "no scattering mechanisms"},
		{name: "non string element", raw: []any{"ACD", 3}, wantErr: "element 1"},
		{name: "number", raw: 5},
		{name: "null", raw: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerce(entry, tt.raw)
			if !tt.auto && tt.want == nil {
				var mismatch *TypeMismatchError
				require.True(t, errors.As(err, &mismatch), "want TypeMismatchError, got %v", err)
				if tt.wantErr != "" {
					assert.Contains(t, mismatch.Reason, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			sel := got.(mechanismSelection)
			assert.Equal(t, tt.auto, sel.auto)
			assert.Equal(t, tt.want, sel.list)
		})
	}
}

func TestTypeCheck_CollectsAllMismatches(t *testing.T) {
	m := Defaults()
	m[KeySOC] = "yes"
	m[KeyDoping] = "many"
	m[KeyFileFormat] = "xml"

	_, err := typeCheck(m, mustRegistry())
	require.Error(t, err)

	leaves := Unwrap(err)
	require.Len(t, leaves, 3)
	var options []string
	for _, e := range leaves {
		var mismatch *TypeMismatchError
		require.True(t, errors.As(e, &mismatch))
		options = append(options, mismatch.Option)
	}
	assert.ElementsMatch(t, []string{KeySOC, KeyDoping, KeyFileFormat}, options)
}
