// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"runtime"
)

// optFloat is a real-valued option that may be unset.
type optFloat struct {
	value float64
	set   bool
}

func (o optFloat) get() (float64, bool) { return o.value, o.set }

func (o optFloat) raw() any {
	if !o.set {
		return nil
	}
	return o.value
}

// Settings is the validated, immutable amset configuration.
// Construct it with Build, Load or a Loader.
type Settings struct {
	scattering mechanismSelection
	mechanisms []Mechanism // resolved selection

	doping       []float64
	temperatures []float64
	gap          GapAdjustment
	soc          bool
	kpoints      KpointPolicy

	interpolationFactor      int
	wavefunctionCoefficients *string
	useProjections           bool
	freeCarrierScreening     bool
	cacheWavefunction        bool

	highFrequencyDielectric  optFloat
	staticDielectric         optFloat
	elasticConstant          optFloat
	deformationPotential     optFloat
	piezoelectricCoefficient optFloat
	popFrequency             optFloat
	meanFreePath             optFloat
	constantRelaxationTime   optFloat
	acceptorCharge           int
	donorCharge              int

	energyCutoff float64
	fdTol        float64
	dosEstep     float64
	symprec      float64
	nworkers     int

	calculateMobility bool
	separateMobility  bool
	fileFormat        FileFormat
	writeInput        bool
	writeMesh         bool
	printLog          bool
}

// binding connects an option key to its Settings field.
type binding struct {
	set func(*Settings, any)
	get func(*Settings) any
}

func boolBinding(f func(*Settings) *bool) binding {
	return binding{
		set: func(s *Settings, v any) { *f(s) = v.(bool) },
		get: func(s *Settings) any { return *f(s) },
	}
}

func intBinding(f func(*Settings) *int) binding {
	return binding{
		set: func(s *Settings, v any) { *f(s) = v.(int) },
		get: func(s *Settings) any { return *f(s) },
	}
}

func floatBinding(f func(*Settings) *float64) binding {
	return binding{
		set: func(s *Settings, v any) { *f(s) = v.(float64) },
		get: func(s *Settings) any { return *f(s) },
	}
}

func optFloatBinding(f func(*Settings) *optFloat) binding {
	return binding{
		set: func(s *Settings, v any) {
			if v != nil {
				*f(s) = optFloat{value: v.(float64), set: true}
			}
		},
		get: func(s *Settings) any { return f(s).raw() },
	}
}

func floatListBinding(f func(*Settings) *[]float64) binding {
	return binding{
		set: func(s *Settings, v any) { *f(s) = v.([]float64) },
		get: func(s *Settings) any { return append([]float64{}, *f(s)...) },
	}
}

func gapBinding(kind GapKind) binding {
	return binding{
		set: func(s *Settings, v any) {
			if v == nil {
				return
			}
			if kind == GapScissor {
				s.gap = Scissor(v.(float64))
			} else {
				s.gap = Bandgap(v.(float64))
			}
		},
		get: func(s *Settings) any {
			if s.gap.kind != kind {
				return nil
			}
			return s.gap.value
		},
	}
}

var bindings = map[string]binding{
	KeyScatteringType: {
		set: func(s *Settings, v any) { s.scattering = v.(mechanismSelection) },
		get: func(s *Settings) any {
			if s.scattering.auto {
				return scatteringAuto
			}
			return mechanismNames(s.scattering.list)
		},
	},
	KeyDoping:              floatListBinding(func(s *Settings) *[]float64 { return &s.doping }),
	KeyTemperatures:        floatListBinding(func(s *Settings) *[]float64 { return &s.temperatures }),
	KeyScissor:             gapBinding(GapScissor),
	KeyBandgap:             gapBinding(GapBandgap),
	KeySOC:                 boolBinding(func(s *Settings) *bool { return &s.soc }),
	KeyZeroWeightedKpoints: {
		set: func(s *Settings, v any) { s.kpoints = v.(KpointPolicy) },
		get: func(s *Settings) any { return string(s.kpoints) },
	},
	KeyInterpolationFactor: intBinding(func(s *Settings) *int { return &s.interpolationFactor }),
	KeyWavefunctionCoefficients: {
		set: func(s *Settings, v any) {
			if v != nil {
				p := v.(string)
				s.wavefunctionCoefficients = &p
			}
		},
		get: func(s *Settings) any {
			if s.wavefunctionCoefficients == nil {
				return nil
			}
			return *s.wavefunctionCoefficients
		},
	},
	KeyUseProjections:           boolBinding(func(s *Settings) *bool { return &s.useProjections }),
	KeyFreeCarrierScreening:     boolBinding(func(s *Settings) *bool { return &s.freeCarrierScreening }),
	KeyCacheWavefunction:        boolBinding(func(s *Settings) *bool { return &s.cacheWavefunction }),
	KeyHighFrequencyDielectric:  optFloatBinding(func(s *Settings) *optFloat { return &s.highFrequencyDielectric }),
	KeyStaticDielectric:         optFloatBinding(func(s *Settings) *optFloat { return &s.staticDielectric }),
	KeyElasticConstant:          optFloatBinding(func(s *Settings) *optFloat { return &s.elasticConstant }),
	KeyDeformationPotential:     optFloatBinding(func(s *Settings) *optFloat { return &s.deformationPotential }),
	KeyPiezoelectricCoefficient: optFloatBinding(func(s *Settings) *optFloat { return &s.piezoelectricCoefficient }),
	KeyPopFrequency:             optFloatBinding(func(s *Settings) *optFloat { return &s.popFrequency }),
	KeyMeanFreePath:             optFloatBinding(func(s *Settings) *optFloat { return &s.meanFreePath }),
	KeyConstantRelaxationTime:   optFloatBinding(func(s *Settings) *optFloat { return &s.constantRelaxationTime }),
	KeyAcceptorCharge:           intBinding(func(s *Settings) *int { return &s.acceptorCharge }),
	KeyDonorCharge:              intBinding(func(s *Settings) *int { return &s.donorCharge }),
	KeyEnergyCutoff:             floatBinding(func(s *Settings) *float64 { return &s.energyCutoff }),
	KeyFdTol:                    floatBinding(func(s *Settings) *float64 { return &s.fdTol }),
	KeyDosEstep:                 floatBinding(func(s *Settings) *float64 { return &s.dosEstep }),
	KeySymprec:                  floatBinding(func(s *Settings) *float64 { return &s.symprec }),
	KeyNWorkers:                 intBinding(func(s *Settings) *int { return &s.nworkers }),
	KeyCalculateMobility:        boolBinding(func(s *Settings) *bool { return &s.calculateMobility }),
	KeySeparateMobility:         boolBinding(func(s *Settings) *bool { return &s.separateMobility }),
	KeyFileFormat: {
		set: func(s *Settings, v any) { s.fileFormat = v.(FileFormat) },
		get: func(s *Settings) any { return string(s.fileFormat) },
	},
	KeyWriteInput: boolBinding(func(s *Settings) *bool { return &s.writeInput }),
	KeyWriteMesh:  boolBinding(func(s *Settings) *bool { return &s.writeMesh }),
	KeyPrintLog:   boolBinding(func(s *Settings) *bool { return &s.printLog }),
}

func newSettings(typed map[string]any) *Settings {
	s := &Settings{}
	for key, v := range typed {
		bindings[key].set(s, v)
	}
	return s
}

// isSet reports whether an option holds a non-null value.
func (s *Settings) isSet(key string) bool {
	return bindings[key].get(s) != nil
}

// ToMap returns the canonical mapping of s. Build(Defaults(), s.ToMap())
// reproduces s.
func (s *Settings) ToMap() Mapping {
	m := make(Mapping, len(bindings))
	for key, b := range bindings {
		m[key] = b.get(s)
	}
	return m
}

// Get returns the canonical value of an option by name or alias.
func (s *Settings) Get(name string) (any, bool) {
	key, ok := mustRegistry().Resolve(name)
	if !ok {
		return nil, false
	}
	return bindings[key].get(s), true
}

// ScatteringType returns the explicitly selected mechanisms, or nil when
// scattering_type is auto.
func (s *Settings) ScatteringType() []Mechanism {
	if s.scattering.auto {
		return nil
	}
	return append([]Mechanism(nil), s.scattering.list...)
}

// IsAutoScattering reports whether scattering_type is auto.
func (s *Settings) IsAutoScattering() bool { return s.scattering.auto }

// Mechanisms returns the mechanisms that will be calculated. For auto this
// is every candidate whose parameters are all set.
func (s *Settings) Mechanisms() []Mechanism {
	return append([]Mechanism(nil), s.mechanisms...)
}

// Doping returns the carrier concentrations in cm^-3.
func (s *Settings) Doping() []float64 { return append([]float64(nil), s.doping...) }

// Temperatures returns the temperatures in K.
func (s *Settings) Temperatures() []float64 { return append([]float64(nil), s.temperatures...) }

// Gap returns the band gap adjustment.
func (s *Settings) Gap() GapAdjustment { return s.gap }

func (s *Settings) SOC() bool                         { return s.soc }
func (s *Settings) ZeroWeightedKpoints() KpointPolicy { return s.kpoints }
func (s *Settings) InterpolationFactor() int          { return s.interpolationFactor }

// WavefunctionCoefficients returns the coefficients file path, if set.
func (s *Settings) WavefunctionCoefficients() (string, bool) {
	if s.wavefunctionCoefficients == nil {
		return "", false
	}
	return *s.wavefunctionCoefficients, true
}

func (s *Settings) UseProjections() bool       { return s.useProjections }
func (s *Settings) FreeCarrierScreening() bool { return s.freeCarrierScreening }
func (s *Settings) CacheWavefunction() bool    { return s.cacheWavefunction }

func (s *Settings) HighFrequencyDielectric() (float64, bool) { return s.highFrequencyDielectric.get() }
func (s *Settings) StaticDielectric() (float64, bool)        { return s.staticDielectric.get() }

// ElasticConstant returns the elastic constant in GPa.
func (s *Settings) ElasticConstant() (float64, bool) { return s.elasticConstant.get() }

// DeformationPotential returns the deformation potential in eV.
func (s *Settings) DeformationPotential() (float64, bool) { return s.deformationPotential.get() }

// PiezoelectricCoefficient returns the piezoelectric coefficient in C/m^2.
func (s *Settings) PiezoelectricCoefficient() (float64, bool) {
	return s.piezoelectricCoefficient.get()
}

// PopFrequency returns the polar optical phonon frequency in THz.
func (s *Settings) PopFrequency() (float64, bool) { return s.popFrequency.get() }

// MeanFreePath returns the mean free path in nm.
func (s *Settings) MeanFreePath() (float64, bool) { return s.meanFreePath.get() }

// ConstantRelaxationTime returns the relaxation time in s.
func (s *Settings) ConstantRelaxationTime() (float64, bool) { return s.constantRelaxationTime.get() }

func (s *Settings) AcceptorCharge() int { return s.acceptorCharge }
func (s *Settings) DonorCharge() int    { return s.donorCharge }

func (s *Settings) EnergyCutoff() float64 { return s.energyCutoff }
func (s *Settings) FdTol() float64        { return s.fdTol }
func (s *Settings) DosEstep() float64     { return s.dosEstep }
func (s *Settings) Symprec() float64      { return s.symprec }

// NWorkers returns the configured worker count; -1 means all available.
func (s *Settings) NWorkers() int { return s.nworkers }

// Workers resolves nworkers to a concrete count.
func (s *Settings) Workers() int {
	if s.nworkers == -1 {
		return runtime.NumCPU()
	}
	return s.nworkers
}

func (s *Settings) CalculateMobility() bool { return s.calculateMobility }
func (s *Settings) SeparateMobility() bool  { return s.separateMobility }
func (s *Settings) FileFormat() FileFormat  { return s.fileFormat }
func (s *Settings) WriteInput() bool        { return s.writeInput }
func (s *Settings) WriteMesh() bool         { return s.writeMesh }
func (s *Settings) PrintLog() bool          { return s.printLog }
