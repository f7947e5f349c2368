// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Option keys.
const (
	KeyScatteringType           = "scattering_type"
	KeyDoping                   = "doping"
	KeyTemperatures             = "temperatures"
	KeyScissor                  = "scissor"
	KeyBandgap                  = "bandgap"
	KeySOC                      = "soc"
	KeyZeroWeightedKpoints      = "zero_weighted_kpoints"
	KeyInterpolationFactor      = "interpolation_factor"
	KeyWavefunctionCoefficients = "wavefunction_coefficients"
	KeyUseProjections           = "use_projections"
	KeyFreeCarrierScreening     = "free_carrier_screening"
	KeyCacheWavefunction        = "cache_wavefunction"
	KeyHighFrequencyDielectric  = "high_frequency_dielectric"
	KeyStaticDielectric         = "static_dielectric"
	KeyElasticConstant          = "elastic_constant"
	KeyDeformationPotential     = "deformation_potential"
	KeyPiezoelectricCoefficient = "piezeoelectric_coefficient"
	KeyAcceptorCharge           = "acceptor_charge"
	KeyDonorCharge              = "donor_charge"
	KeyPopFrequency             = "pop_frequency"
	KeyMeanFreePath             = "mean_free_path"
	KeyConstantRelaxationTime   = "constant_relaxation_time"
	KeyEnergyCutoff             = "energy_cutoff"
	KeyFdTol                    = "fd_tol"
	KeyDosEstep                 = "dos_estep"
	KeySymprec                  = "symprec"
	KeyNWorkers                 = "nworkers"
	KeyCalculateMobility        = "calculate_mobility"
	KeySeparateMobility         = "separate_mobility"
	KeyFileFormat               = "file_format"
	KeyWriteInput               = "write_input"
	KeyWriteMesh                = "write_mesh"
	KeyPrintLog                 = "print_log"
)

// EnvPrefix prefixes every settings environment variable.
const EnvPrefix = "AMSET_"

// Kind is the value type of an option.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindOptionalFloat
	KindFloatList
	KindOptionalString
	KindMechanisms
	KindFileFormat
	KindKpointPolicy
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "real"
	case KindOptionalFloat:
		return "real or null"
	case KindFloatList:
		return "list of reals"
	case KindOptionalString:
		return "string or null"
	case KindMechanisms:
		return "auto or list of " + strings.Join(mechanismNames(allMechanisms), "|")
	case KindFileFormat:
		return "one of " + strings.Join(fileFormats, "|")
	case KindKpointPolicy:
		return "one of " + strings.Join(kpointPolicies, "|")
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Scope groups options by what a change to them affects.
type Scope string

const (
	ScopePhysics  Scope = "physics"  // material and model parameters
	ScopeNumerics Scope = "numerics" // accuracy and parallelism knobs
	ScopeOutput   Scope = "output"   // what gets written, and how
	ScopeRuntime  Scope = "runtime"  // execution only, results unaffected
)

// OptionEntry defines a single option's metadata.
type OptionEntry struct {
	Key     string   // option name (e.g. "doping")
	Env     string   // environment variable (e.g. "AMSET_DOPING")
	Kind    Kind     // value type
	Scope   Scope    // affected stage
	Unit    string   // physical unit, empty when dimensionless
	Aliases []string // accepted alternative names
	Doc     string   // one-line description
}

// Registry manages the settings surface inventory.
type Registry struct {
	ByKey   map[string]OptionEntry
	ByEnv   map[string]OptionEntry
	byAlias map[string]string
	keys    []string
}

var (
	globalRegistry    *Registry
	globalRegistryErr error
	registryOnce      sync.Once
)

// GetRegistry returns the global option registry.
// It returns an error if the registry contains duplicates.
func GetRegistry() (*Registry, error) {
	registryOnce.Do(func() {
		globalRegistry, globalRegistryErr = buildRegistry(optionEntries())
	})
	return globalRegistry, globalRegistryErr
}

func mustRegistry() *Registry {
	r, err := GetRegistry()
	if err != nil {
		panic(fmt.Sprintf("config: invalid option registry: %v", err))
	}
	return r
}

func optionEntries() []OptionEntry {
	return []OptionEntry{
		// --- PHYSICS ---
		{Key: KeyScatteringType, Kind: KindMechanisms, Scope: ScopePhysics, Doc: "scattering mechanisms to include, or auto"},
		{Key: KeyDoping, Kind: KindFloatList, Scope: ScopePhysics, Unit: "cm^-3", Doc: "carrier concentrations; positive is n-type, negative p-type"},
		{Key: KeyTemperatures, Kind: KindFloatList, Scope: ScopePhysics, Unit: "K", Doc: "temperatures to calculate"},
		{Key: KeyScissor, Kind: KindOptionalFloat, Scope: ScopePhysics, Unit: "eV", Doc: "rigid shift applied to the band gap"},
		{Key: KeyBandgap, Kind: KindOptionalFloat, Scope: ScopePhysics, Unit: "eV", Doc: "band gap to set by shifting the conduction bands"},
		{Key: KeySOC, Kind: KindBool, Scope: ScopePhysics, Doc: "band structure includes spin-orbit coupling"},
		{Key: KeyZeroWeightedKpoints, Kind: KindKpointPolicy, Scope: ScopePhysics, Doc: "handling of zero-weighted k-points"},
		{Key: KeyHighFrequencyDielectric, Kind: KindOptionalFloat, Scope: ScopePhysics, Doc: "high-frequency dielectric constant"},
		{Key: KeyStaticDielectric, Kind: KindOptionalFloat, Scope: ScopePhysics, Doc: "static dielectric constant"},
		{Key: KeyElasticConstant, Kind: KindOptionalFloat, Scope: ScopePhysics, Unit: "GPa", Doc: "direction averaged elastic constant"},
		{Key: KeyDeformationPotential, Kind: KindOptionalFloat, Scope: ScopePhysics, Unit: "eV", Doc: "volume deformation potential"},
		{Key: KeyPiezoelectricCoefficient, Kind: KindOptionalFloat, Scope: ScopePhysics, Unit: "C/m^2", Aliases: []string{"piezoelectric_coefficient"}, Doc: "direction averaged piezoelectric coefficient"},
		{Key: KeyAcceptorCharge, Kind: KindInt, Scope: ScopePhysics, Doc: "charge of acceptor defects"},
		{Key: KeyDonorCharge, Kind: KindInt, Scope: ScopePhysics, Doc: "charge of donor defects"},
		{Key: KeyPopFrequency, Kind: KindOptionalFloat, Scope: ScopePhysics, Unit: "THz", Doc: "polar optical phonon frequency"},
		{Key: KeyMeanFreePath, Kind: KindOptionalFloat, Scope: ScopePhysics, Unit: "nm", Doc: "mean free path for boundary scattering"},
		{Key: KeyConstantRelaxationTime, Kind: KindOptionalFloat, Scope: ScopePhysics, Unit: "s", Doc: "constant relaxation time"},
		{Key: KeyFreeCarrierScreening, Kind: KindBool, Scope: ScopePhysics, Doc: "screen polar scattering by free carriers"},

		// --- NUMERICS ---
		{Key: KeyInterpolationFactor, Kind: KindInt, Scope: ScopeNumerics, Doc: "band structure interpolation factor"},
		{Key: KeyWavefunctionCoefficients, Kind: KindOptionalString, Scope: ScopeNumerics, Doc: "path to the wavefunction coefficients file"},
		{Key: KeyUseProjections, Kind: KindBool, Scope: ScopeNumerics, Doc: "use orbital projections instead of wavefunction coefficients"},
		{Key: KeyCacheWavefunction, Kind: KindBool, Scope: ScopeNumerics, Doc: "cache wavefunction overlaps"},
		{Key: KeyEnergyCutoff, Kind: KindFloat, Scope: ScopeNumerics, Unit: "eV", Doc: "energy window around the Fermi level"},
		{Key: KeyFdTol, Kind: KindFloat, Scope: ScopeNumerics, Unit: "%", Doc: "Fermi-Dirac derivative cutoff"},
		{Key: KeyDosEstep, Kind: KindFloat, Scope: ScopeNumerics, Unit: "eV", Doc: "density of states energy step"},
		{Key: KeySymprec, Kind: KindFloat, Scope: ScopeNumerics, Unit: "Angstrom", Doc: "symmetry finding tolerance"},
		{Key: KeyNWorkers, Kind: KindInt, Scope: ScopeRuntime, Doc: "worker processes, -1 uses all available"},

		// --- OUTPUT ---
		{Key: KeyCalculateMobility, Kind: KindBool, Scope: ScopeOutput, Doc: "calculate mobility in addition to conductivity"},
		{Key: KeySeparateMobility, Kind: KindBool, Scope: ScopeOutput, Doc: "report mobility per scattering mechanism"},
		{Key: KeyFileFormat, Kind: KindFileFormat, Scope: ScopeOutput, Doc: "serialization of results"},
		{Key: KeyWriteInput, Kind: KindBool, Scope: ScopeOutput, Doc: "write the effective settings next to the results"},
		{Key: KeyWriteMesh, Kind: KindBool, Scope: ScopeOutput, Doc: "write mesh properties (rates, velocities)"},
		{Key: KeyPrintLog, Kind: KindBool, Scope: ScopeRuntime, Doc: "print informational log output"},
	}
}

func buildRegistry(entries []OptionEntry) (*Registry, error) {
	r := &Registry{
		ByKey:   make(map[string]OptionEntry, len(entries)),
		ByEnv:   make(map[string]OptionEntry, len(entries)),
		byAlias: make(map[string]string),
	}

	for _, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("registry entry without key")
		}
		if e.Env == "" {
			e.Env = envName(e.Key)
		}
		if _, exists := r.ByKey[e.Key]; exists {
			return nil, fmt.Errorf("duplicate option key: %s", e.Key)
		}
		if _, exists := r.ByEnv[e.Env]; exists {
			return nil, fmt.Errorf("duplicate env key: %s", e.Env)
		}
		r.ByKey[e.Key] = e
		r.ByEnv[e.Env] = e
		r.keys = append(r.keys, e.Key)
	}

	for _, e := range entries {
		for _, alias := range e.Aliases {
			if _, exists := r.ByKey[alias]; exists {
				return nil, fmt.Errorf("alias %s of %s shadows an option key", alias, e.Key)
			}
			if prev, exists := r.byAlias[alias]; exists {
				return nil, fmt.Errorf("alias %s claimed by %s and %s", alias, prev, e.Key)
			}
			r.byAlias[alias] = e.Key
			if _, exists := r.ByEnv[envName(alias)]; exists {
				return nil, fmt.Errorf("duplicate env key: %s", envName(alias))
			}
			r.ByEnv[envName(alias)] = r.ByKey[e.Key]
		}
	}

	sort.Strings(r.keys)
	return r, nil
}

// Keys returns every option key in sorted order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Resolve maps an option name or alias to its canonical key.
func (r *Registry) Resolve(name string) (string, bool) {
	if _, ok := r.ByKey[name]; ok {
		return name, true
	}
	key, ok := r.byAlias[name]
	return key, ok
}

// IsAlias reports whether name is an alias rather than a canonical key.
func (r *Registry) IsAlias(name string) bool {
	_, ok := r.byAlias[name]
	return ok
}

func envName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

func mechanismNames(ms []Mechanism) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = string(m)
	}
	return out
}
