// Package selector picks one transcript per gene from the gateway's
// candidates, pausing for an explicit decision when MANE annotations
// conflict.
package selector

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/inodb/vibe-bed/internal/cache"
	"github.com/inodb/vibe-bed/internal/identifier"
)

// State is the resolution state of one gene.
type State int

const (
	NoCandidate State = iota
	AutoResolved
	PendingDisambiguation
	Resolved
)

func (s State) String() string {
	switch s {
	case NoCandidate:
		return "no_candidate"
	case AutoResolved:
		return "auto_resolved"
	case PendingDisambiguation:
		return "pending_disambiguation"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

// Selection statuses.
const (
	StatusVersionSpecified = "version_specified"
	StatusManeSelect       = cache.ManeSelect
	StatusManePlusClinical = cache.ManePlusClinical
	StatusVerified         = "Transcript verified"
	StatusGRCh38Equivalent = "MANE Select (GRCh38 equivalent)"
	StatusHighestVersion   = "Highest version"
	StatusUserSelected     = "User selected"
)

// WarningNoMane flags a selection made without any MANE annotation.
const WarningNoMane = "No MANE transcript available. Selected highest version number - clinical review recommended"

// warningAssemblyMapping flags a GRCh37 transcript reached only through the
// GRCh38 MANE Select accession.
const warningAssemblyMapping = "No direct GRCh37 transcript found. Using GRCh38 MANE SELECT transcript %s to find matching GRCh37 version"

var (
	// ErrNotPending is returned when resolving a selection that is not awaiting a decision.
	ErrNotPending = errors.New("selection is not pending disambiguation")
	// ErrUnknownChoice is returned when a choice matches none of the candidates.
	ErrUnknownChoice = errors.New("choice does not match any candidate transcript")
)

// Input is everything the selector needs for one identifier.
type Input struct {
	Identifier  identifier.Identifier
	Assembly    cache.Assembly
	Transcripts []*cache.Transcript // Candidates in Assembly
	// GRCh38 holds the GRCh38 transcripts of the same identifier when
	// Assembly is GRCh37. Used to carry the MANE Select accession across.
	GRCh38 []*cache.Transcript
	// Mapped holds the GRCh37 transcripts found by looking up the GRCh38
	// MANE Select accession. Only consulted when Transcripts has no
	// candidate.
	Mapped []*cache.Transcript
}

// Selection is the outcome for one gene. It is never modified in place;
// Resolve returns a new value.
type Selection struct {
	Identifier identifier.Identifier
	Gene       string
	State      State
	Transcript *cache.Transcript   // Chosen transcript, nil unless AutoResolved or Resolved
	Candidates []*cache.Transcript // Options when PendingDisambiguation
	Status     string
	Warnings   []string
}

// Select applies the selection rules to one identifier's candidates.
func Select(in Input) *Selection {
	sel := &Selection{
		Identifier: in.Identifier,
		Gene:       geneName(in),
	}

	candidates := in.Transcripts
	if in.Identifier.Kind == identifier.TranscriptID {
		candidates = filterAccession(candidates, in.Identifier.Base)
	}
	if len(candidates) == 0 {
		if in.Assembly == cache.GRCh37 {
			if mane := GRCh38ManeSelect(in.GRCh38); mane != nil {
				if t := latest(in.Mapped, mane.Accession); t != nil {
					sel.Warnings = append(sel.Warnings, fmt.Sprintf(warningAssemblyMapping, mane.Accession))
					return sel.choose(AutoResolved, t, StatusGRCh38Equivalent)
				}
			}
		}
		sel.State = NoCandidate
		return sel
	}

	if in.Identifier.HasVersion() {
		for _, t := range candidates {
			if t.Version == in.Identifier.Version {
				return sel.choose(AutoResolved, t, StatusVersionSpecified)
			}
		}
		sel.Warnings = append(sel.Warnings, fmt.Sprintf(
			"Version %s of %s not found in %s; selecting from available versions",
			in.Identifier.Version, in.Identifier.Base, in.Assembly))
	}

	var selects, plus []*cache.Transcript
	for _, t := range candidates {
		switch {
		case t.IsManeSelect():
			selects = append(selects, t)
		case t.IsManePlusClinical():
			plus = append(plus, t)
		}
	}

	switch {
	case len(selects) > 0 && len(plus) > 0:
		return sel.pending(append(append([]*cache.Transcript{}, selects...), plus...))
	case len(selects) == 1:
		return sel.choose(AutoResolved, selects[0], StatusManeSelect)
	case len(selects) > 1:
		return sel.pending(selects)
	case len(plus) == 1:
		return sel.choose(AutoResolved, plus[0], StatusManePlusClinical)
	case len(plus) > 1:
		return sel.pending(plus)
	}

	if in.Assembly == cache.GRCh37 {
		if t := grch38Equivalent(candidates, in.GRCh38); t != nil {
			return sel.choose(AutoResolved, t, StatusGRCh38Equivalent)
		}
	}

	if len(candidates) == 1 {
		return sel.choose(AutoResolved, candidates[0], StatusVerified)
	}

	sel.Warnings = append(sel.Warnings, WarningNoMane)
	return sel.choose(AutoResolved, highestVersion(candidates), StatusHighestVersion)
}

// Resolve applies an explicit decision to a pending selection. The choice
// may be a versioned or unversioned accession, or a MANE label such as
// "MANE Plus Clinical".
func (s *Selection) Resolve(choice string) (*Selection, error) {
	if s.State != PendingDisambiguation {
		return nil, fmt.Errorf("resolve %s: %w", s.Gene, ErrNotPending)
	}

	t := matchChoice(s.Candidates, choice)
	if t == nil {
		return nil, fmt.Errorf("resolve %s with %q: %w", s.Gene, choice, ErrUnknownChoice)
	}

	status := t.ManeStatus
	if status == "" {
		status = StatusUserSelected
	}
	out := &Selection{
		Identifier: s.Identifier,
		Gene:       s.Gene,
		Warnings:   append([]string(nil), s.Warnings...),
	}
	return out.choose(Resolved, t, status), nil
}

// Final reports whether the selection needs no further decision.
func (s *Selection) Final() bool {
	return s.State != PendingDisambiguation
}

func (s *Selection) choose(state State, t *cache.Transcript, status string) *Selection {
	s.State = state
	s.Transcript = t
	s.Candidates = nil
	s.Status = status
	if !t.IsProteinCoding() {
		biotype := t.Biotype
		if biotype == "" {
			biotype = "unknown"
		}
		s.Warnings = append(s.Warnings, fmt.Sprintf(
			"%s is not protein-coding (biotype %s) - clinical review recommended",
			t.VersionedAccession(), biotype))
	}
	if s.Gene == "" {
		s.Gene = t.GeneSymbol
	}
	return s
}

func (s *Selection) pending(candidates []*cache.Transcript) *Selection {
	s.State = PendingDisambiguation
	s.Candidates = candidates
	s.Status = ""
	return s
}

func geneName(in Input) string {
	if in.Identifier.Kind == identifier.GeneSymbol {
		return in.Identifier.Token
	}
	for _, t := range in.Transcripts {
		if t.GeneSymbol != "" {
			return t.GeneSymbol
		}
	}
	return in.Identifier.Token
}

func filterAccession(ts []*cache.Transcript, base string) []*cache.Transcript {
	var out []*cache.Transcript
	for _, t := range ts {
		if strings.EqualFold(t.Accession, base) {
			out = append(out, t)
		}
	}
	return out
}

// GRCh38ManeSelect returns the first MANE Select RefSeq (NM_) transcript,
// or nil.
func GRCh38ManeSelect(grch38 []*cache.Transcript) *cache.Transcript {
	for _, t := range grch38 {
		if t.IsManeSelect() && strings.HasPrefix(t.Accession, "NM_") {
			return t
		}
	}
	return nil
}

// grch38Equivalent finds the GRCh38 MANE Select RefSeq accession among the
// GRCh37 candidates and returns its highest GRCh37 version.
func grch38Equivalent(grch37, grch38 []*cache.Transcript) *cache.Transcript {
	mane := GRCh38ManeSelect(grch38)
	if mane == nil {
		return nil
	}
	return latest(grch37, mane.Accession)
}

// latest returns the highest version of accession in ts, or nil.
func latest(ts []*cache.Transcript, accession string) *cache.Transcript {
	var best *cache.Transcript
	for _, t := range ts {
		if !strings.EqualFold(t.Accession, accession) {
			continue
		}
		if best == nil || t.VersionNumber() > best.VersionNumber() {
			best = t
		}
	}
	return best
}

// highestVersion prefers protein-coding, then curated RefSeq (NM_/NR_),
// then the highest version. Ties break on accession.
func highestVersion(ts []*cache.Transcript) *cache.Transcript {
	sorted := append([]*cache.Transcript(nil), ts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsProteinCoding() != b.IsProteinCoding() {
			return a.IsProteinCoding()
		}
		if a.IsRefSeqCurated() != b.IsRefSeqCurated() {
			return a.IsRefSeqCurated()
		}
		if a.VersionNumber() != b.VersionNumber() {
			return a.VersionNumber() > b.VersionNumber()
		}
		return a.Accession < b.Accession
	})
	return sorted[0]
}

func matchChoice(candidates []*cache.Transcript, choice string) *cache.Transcript {
	c := strings.TrimSpace(choice)
	if c == "" {
		return nil
	}
	for _, t := range candidates {
		if strings.EqualFold(t.VersionedAccession(), c) {
			return t
		}
	}

	var best *cache.Transcript
	for _, t := range candidates {
		if strings.EqualFold(t.Accession, c) && (best == nil || t.VersionNumber() > best.VersionNumber()) {
			best = t
		}
	}
	if best != nil {
		return best
	}

	label := cache.NormalizeManeStatus(c)
	for _, t := range candidates {
		if t.ManeStatus != "" && t.ManeStatus == label {
			return t
		}
	}
	return nil
}
