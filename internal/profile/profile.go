// Package profile holds named padding/UTR settings and re-derives emitted
// regions from an immutable base record set.
package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/inodb/vibe-bed/internal/interval"
)

// Default profile names.
const (
	Data       = "data"
	Sambamba   = "sambamba"
	ExomeDepth = "exomeDepth"
	CNV        = "cnv"
)

// ErrUnknownProfile is returned for a profile name that is not registered.
var ErrUnknownProfile = errors.New("unknown profile")

// Settings is one named profile.
type Settings struct {
	Name               string `json:"name" yaml:"name"`
	Padding5           int64  `json:"padding_5" yaml:"padding_5"`
	Padding3           int64  `json:"padding_3" yaml:"padding_3"`
	SNPPadding5        int64  `json:"snp_padding_5" yaml:"snp_padding_5"`
	SNPPadding3        int64  `json:"snp_padding_3" yaml:"snp_padding_3"`
	SeparateSNPPadding bool   `json:"separate_snp_padding" yaml:"separate_snp_padding"`
	Include5UTR        bool   `json:"include_5utr" yaml:"include_5utr"`
	Include3UTR        bool   `json:"include_3utr" yaml:"include_3utr"`
}

// Defaults returns the built-in profiles: data, sambamba, exomeDepth and
// cnv, all unpadded with UTRs excluded.
func Defaults() []Settings {
	return []Settings{
		{Name: Data},
		{Name: Sambamba},
		{Name: ExomeDepth},
		{Name: CNV},
	}
}

// Validate rejects unnamed profiles and negative padding.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	for key, v := range map[string]int64{
		"padding_5":     s.Padding5,
		"padding_3":     s.Padding3,
		"snp_padding_5": s.SNPPadding5,
		"snp_padding_3": s.SNPPadding3,
	} {
		if v < 0 {
			return fmt.Errorf("profile %s: %s must be non-negative, got %d", s.Name, key, v)
		}
	}
	return nil
}

// Options converts the settings plus toggle state into interval options.
func (s Settings) Options(include5, include3, addChr bool) interval.Options {
	return interval.Options{
		Padding5:           s.Padding5,
		Padding3:           s.Padding3,
		SNPPadding5:        s.SNPPadding5,
		SNPPadding3:        s.SNPPadding3,
		SeparateSNPPadding: s.SeparateSNPPadding,
		Include5UTR:        include5,
		Include3UTR:        include3,
		AddChrPrefix:       addChr,
	}
}

// Keys lists the settable keys, in display order.
func Keys() []string {
	return []string{"padding_5", "padding_3", "snp_padding_5", "snp_padding_3",
		"separate_snp_padding", "include_5utr", "include_3utr"}
}

// With returns a copy of s with key set to value.
func (s Settings) With(key, value string) (Settings, error) {
	out := s
	var err error
	switch strings.ToLower(key) {
	case "padding_5":
		out.Padding5, err = cast.ToInt64E(value)
	case "padding_3":
		out.Padding3, err = cast.ToInt64E(value)
	case "snp_padding_5":
		out.SNPPadding5, err = cast.ToInt64E(value)
	case "snp_padding_3":
		out.SNPPadding3, err = cast.ToInt64E(value)
	case "separate_snp_padding":
		out.SeparateSNPPadding, err = cast.ToBoolE(value)
	case "include_5utr":
		out.Include5UTR, err = cast.ToBoolE(value)
	case "include_3utr":
		out.Include3UTR, err = cast.ToBoolE(value)
	default:
		return s, fmt.Errorf("unknown profile key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	if err != nil {
		return s, fmt.Errorf("profile %s: invalid value for %s: %w", s.Name, key, err)
	}
	if err := out.Validate(); err != nil {
		return s, err
	}
	return out, nil
}

// Recompute derives regions from base records under one profile and
// explicit toggle state. It reads records only.
func Recompute(records []interval.Record, s Settings, include5, include3, addChr bool) ([]interval.RegionResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return interval.DeriveAll(records, s.Options(include5, include3, addChr)), nil
}

// Registry is a set of named profiles. Values are copied in and out.
type Registry struct {
	profiles map[string]Settings
}

// NewRegistry creates a registry holding the given profiles.
func NewRegistry(settings ...Settings) (*Registry, error) {
	r := &Registry{profiles: make(map[string]Settings, len(settings))}
	for _, s := range settings {
		if err := r.Set(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Get returns a profile by name.
func (r *Registry) Get(name string) (Settings, error) {
	s, ok := r.profiles[name]
	if !ok {
		return Settings{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	return s, nil
}

// Set validates and stores a profile, replacing any with the same name.
func (r *Registry) Set(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.profiles[s.Name] = s
	return nil
}

// Names returns the registered profile names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for n := range r.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Emitter derives per-profile region lists from one base record set.
type Emitter struct {
	registry *Registry
	addChr   bool
}

// NewEmitter creates an emitter over a registry.
func NewEmitter(registry *Registry, addChr bool) *Emitter {
	return &Emitter{registry: registry, addChr: addChr}
}

// Emit derives regions for one profile using that profile's UTR flags.
func (e *Emitter) Emit(records []interval.Record, name string) ([]interval.RegionResult, error) {
	s, err := e.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return Recompute(records, s, s.Include5UTR, s.Include3UTR, e.addChr)
}

// EmitAll derives every registered profile independently.
func (e *Emitter) EmitAll(records []interval.Record) (map[string][]interval.RegionResult, error) {
	out := make(map[string][]interval.RegionResult, len(e.registry.profiles))
	for _, name := range e.registry.Names() {
		rows, err := e.Emit(records, name)
		if err != nil {
			return nil, fmt.Errorf("emit %s: %w", name, err)
		}
		out[name] = rows
	}
	return out, nil
}
