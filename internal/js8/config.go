package js8

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config collects every decoder tunable as an immutable value passed by
// reference into each sub-band worker, so no tuning knob lives in a
// process-wide mutable. Set below gives dynamic-by-name access for
// scripts and tests that address tunables as strings.
type Config struct {
	// Rate reduction
	Nyquist        float64 `yaml:"nyquist"`
	ReduceShoulder float64 `yaml:"reduce_shoulder"`
	ReduceFactor   float64 `yaml:"reduce_factor"`
	ReduceExtra    float64 `yaml:"reduce_extra"`

	// Coarse search
	NCoarse        int     `yaml:"ncoarse"`
	NCoarseBlocks  int     `yaml:"ncoarse_blocks"`
	TMinus         float64 `yaml:"tminus"`
	TPlus          float64 `yaml:"tplus"`
	CoarseHzFracs  int     `yaml:"coarse_hz_fracs"`
	CoarseOffFracs int     `yaml:"coarse_off_fracs"`

	// Fine search
	SecondHzWin  float64 `yaml:"second_hz_win"`
	SecondHzInc  float64 `yaml:"second_hz_inc"`
	SecondOffWin float64 `yaml:"second_off_win"`
	SecondOffInc float64 `yaml:"second_off_inc"`
	ThirdHzWin   float64 `yaml:"third_hz_win"`
	ThirdHzInc   float64 `yaml:"third_hz_inc"`
	ThirdOffWin  float64 `yaml:"third_off_win"`
	ThirdOffInc  float64 `yaml:"third_off_inc"`
	UseDrift     bool    `yaml:"use_drift"`
	Drift        float64 `yaml:"drift"`

	// Soft demodulator
	SNRHow      int     `yaml:"snr_how"`
	SNRWin      int     `yaml:"snr_win"`
	BestInNoise bool    `yaml:"best_in_noise"`
	SoftRanges  int     `yaml:"soft_ranges"`
	UseApriori  bool    `yaml:"use_apriori"`
	ProbltHow   int     `yaml:"problt_how"`
	LogRate     float64 `yaml:"log_rate"`
	LogTail     float64 `yaml:"log_tail"`
	Window      string  `yaml:"window"`

	// LDPC
	LDPCIters int `yaml:"ldpc_iters"`
	// OSDLDPCThresh would gate an ordered-statistics fallback decode;
	// acceptance here always requires all 87 parity checks satisfied, so
	// the knob is settable but not consulted.
	OSDLDPCThresh int `yaml:"osd_ldpc_thresh"`

	// Subtractor
	FancySubtract bool `yaml:"fancy_subtract"`
	SubAmpWin     int  `yaml:"sub_amp_win"`
	SubPhaseWin   int  `yaml:"sub_phase_win"`

	// Pass controller
	NThreads      int     `yaml:"nthreads"`
	Overlap       float64 `yaml:"overlap"`
	NPasses       int     `yaml:"npasses"`
	Pass0Frac     float64 `yaml:"pass0_frac"`
	Budget        float64 `yaml:"budget"`
	FinalDeadline float64 `yaml:"final_deadline"`
	AlreadyHz     float64 `yaml:"already_hz"`

	// External interface
	UseHints bool    `yaml:"use_hints"`
	MinHz    float64 `yaml:"min_hz"`
	MaxHz    float64 `yaml:"max_hz"`

	// Diagnostics
	Diagnostics bool `yaml:"diagnostics"`
}

// DefaultConfig returns the tunables at their shipped defaults.
func DefaultConfig() Config {
	return Config{
		Nyquist:        0.925,
		ReduceShoulder: -1,
		ReduceFactor:   0.25,
		ReduceExtra:    0,

		NCoarse:        5,
		NCoarseBlocks:  1,
		TMinus:         1.0,
		TPlus:          1.0,
		CoarseHzFracs:  2,
		CoarseOffFracs: 2,

		SecondHzWin:  3.0,
		SecondHzInc:  0.25,
		SecondOffWin: 2.0,
		SecondOffInc: 0.25,
		ThirdHzWin:   0.5,
		ThirdHzInc:   0.02,
		ThirdOffWin:  0.5,
		ThirdOffInc:  0.1,
		UseDrift:     false,
		Drift:        0,

		SNRHow:      0,
		SNRWin:      2,
		BestInNoise: false,
		SoftRanges:  1,
		UseApriori:  false,
		ProbltHow:   0,
		LogRate:     10,
		LogTail:     0.1,
		Window:      "blackman",

		LDPCIters:     40,
		OSDLDPCThresh: 70,

		FancySubtract: true,
		SubAmpWin:     2,
		SubPhaseWin:   2,

		NThreads:      4,
		Overlap:       40,
		NPasses:       3,
		Pass0Frac:     0.4,
		Budget:        13.5,
		FinalDeadline: 16.0,
		AlreadyHz:     7.5,

		UseHints: false,
		MinHz:    300,
		MaxHz:    2950,

		Diagnostics: false,
	}
}

// LoadYAML reads a Config from a YAML file, starting from DefaultConfig so
// a partial file only overrides the fields it names.
func LoadYAML(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("js8: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("js8: parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Set addresses a tunable by its registry name: it returns the field's
// string value as it was before the call, and if val is non-empty, also
// assigns val (coerced per field type) to that field. An empty val is a
// pure read.
func (c *Config) Set(name, val string) (string, error) {
	field, ok := configFields[name]
	if !ok {
		return "", fmt.Errorf("js8: unknown tunable %q", name)
	}
	cur := field.get(c)
	if val == "" {
		return cur, nil
	}
	if err := field.set(c, val); err != nil {
		return "", fmt.Errorf("js8: setting %q: %w", name, err)
	}
	return cur, nil
}

type configField struct {
	get func(*Config) string
	set func(*Config, string) error
}

func floatField(sel func(*Config) *float64) configField {
	return configField{
		get: func(c *Config) string { return strconv.FormatFloat(*sel(c), 'g', -1, 64) },
		set: func(c *Config, val string) error {
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return err
			}
			*sel(c) = v
			return nil
		},
	}
}

func intField(sel func(*Config) *int) configField {
	return configField{
		get: func(c *Config) string { return strconv.Itoa(*sel(c)) },
		set: func(c *Config, val string) error {
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return err
			}
			*sel(c) = int(v)
			return nil
		},
	}
}

func stringField(sel func(*Config) *string) configField {
	return configField{
		get: func(c *Config) string { return *sel(c) },
		set: func(c *Config, val string) error {
			*sel(c) = val
			return nil
		},
	}
}

func boolField(sel func(*Config) *bool) configField {
	return configField{
		get: func(c *Config) string {
			if *sel(c) {
				return "1"
			}
			return "0"
		},
		set: func(c *Config, val string) error {
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return err
			}
			*sel(c) = v != 0
			return nil
		},
	}
}

// configFields is a name -> accessor table. Each entry closes over a
// field-selector function rather than a field address, so the same table
// works against whichever *Config instance is passed to Set.
var configFields = map[string]configField{
	"nyquist":          floatField(func(c *Config) *float64 { return &c.Nyquist }),
	"reduce_shoulder":  floatField(func(c *Config) *float64 { return &c.ReduceShoulder }),
	"reduce_factor":    floatField(func(c *Config) *float64 { return &c.ReduceFactor }),
	"reduce_extra":     floatField(func(c *Config) *float64 { return &c.ReduceExtra }),
	"ncoarse":          intField(func(c *Config) *int { return &c.NCoarse }),
	"ncoarse_blocks":   intField(func(c *Config) *int { return &c.NCoarseBlocks }),
	"tminus":           floatField(func(c *Config) *float64 { return &c.TMinus }),
	"tplus":            floatField(func(c *Config) *float64 { return &c.TPlus }),
	"coarse_hz_fracs":  intField(func(c *Config) *int { return &c.CoarseHzFracs }),
	"coarse_off_fracs": intField(func(c *Config) *int { return &c.CoarseOffFracs }),
	"second_hz_win":    floatField(func(c *Config) *float64 { return &c.SecondHzWin }),
	"second_hz_inc":    floatField(func(c *Config) *float64 { return &c.SecondHzInc }),
	"second_off_win":   floatField(func(c *Config) *float64 { return &c.SecondOffWin }),
	"second_off_inc":   floatField(func(c *Config) *float64 { return &c.SecondOffInc }),
	"third_hz_win":     floatField(func(c *Config) *float64 { return &c.ThirdHzWin }),
	"third_hz_inc":     floatField(func(c *Config) *float64 { return &c.ThirdHzInc }),
	"third_off_win":    floatField(func(c *Config) *float64 { return &c.ThirdOffWin }),
	"third_off_inc":    floatField(func(c *Config) *float64 { return &c.ThirdOffInc }),
	"use_drift":        boolField(func(c *Config) *bool { return &c.UseDrift }),
	"drift":            floatField(func(c *Config) *float64 { return &c.Drift }),
	"snr_how":          intField(func(c *Config) *int { return &c.SNRHow }),
	"snr_win":          intField(func(c *Config) *int { return &c.SNRWin }),
	"best_in_noise":    boolField(func(c *Config) *bool { return &c.BestInNoise }),
	"soft_ranges":      intField(func(c *Config) *int { return &c.SoftRanges }),
	"use_apriori":      boolField(func(c *Config) *bool { return &c.UseApriori }),
	"problt_how":       intField(func(c *Config) *int { return &c.ProbltHow }),
	"log_rate":         floatField(func(c *Config) *float64 { return &c.LogRate }),
	"log_tail":         floatField(func(c *Config) *float64 { return &c.LogTail }),
	"window":           stringField(func(c *Config) *string { return &c.Window }),
	"ldpc_iters":       intField(func(c *Config) *int { return &c.LDPCIters }),
	"osd_ldpc_thresh":  intField(func(c *Config) *int { return &c.OSDLDPCThresh }),
	"fancy_subtract":   boolField(func(c *Config) *bool { return &c.FancySubtract }),
	"sub_amp_win":      intField(func(c *Config) *int { return &c.SubAmpWin }),
	"sub_phase_win":    intField(func(c *Config) *int { return &c.SubPhaseWin }),
	"nthreads":         intField(func(c *Config) *int { return &c.NThreads }),
	"overlap":          floatField(func(c *Config) *float64 { return &c.Overlap }),
	"npasses":          intField(func(c *Config) *int { return &c.NPasses }),
	"pass0_frac":       floatField(func(c *Config) *float64 { return &c.Pass0Frac }),
	"budget":           floatField(func(c *Config) *float64 { return &c.Budget }),
	"final_deadline":   floatField(func(c *Config) *float64 { return &c.FinalDeadline }),
	"already_hz":       floatField(func(c *Config) *float64 { return &c.AlreadyHz }),
	"use_hints":        boolField(func(c *Config) *bool { return &c.UseHints }),
	"min_hz":           floatField(func(c *Config) *float64 { return &c.MinHz }),
	"max_hz":           floatField(func(c *Config) *float64 { return &c.MaxHz }),
	"diagnostics":      boolField(func(c *Config) *bool { return &c.Diagnostics }),
}
