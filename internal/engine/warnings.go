package engine

import (
	"strings"

	"github.com/inodb/vibe-bed/internal/interval"
)

// WarningSummary heads every non-empty warning report.
const WarningSummary = "Some transcripts require clinical review"

// Warning is one per-identifier note attached to a selection.
type Warning struct {
	Identifier string `json:"identifier"`
	Gene       string `json:"gene"`
	Message    string `json:"message"`
	Type       string `json:"type"`
}

// WarningReport summarises the warnings of a record set.
type WarningReport struct {
	Summary string    `json:"summary"`
	Details []Warning `json:"details"`
}

// CollectWarnings gathers warnings from records, once per identifier and
// message, in record order. Returns nil when there are none.
func CollectWarnings(records []interval.Record) *WarningReport {
	seen := make(map[string]bool)
	var details []Warning
	for _, r := range records {
		if r.Warning == "" {
			continue
		}
		for _, msg := range strings.Split(r.Warning, warningSep) {
			key := r.Source + "\x00" + msg
			if seen[key] {
				continue
			}
			seen[key] = true
			details = append(details, Warning{
				Identifier: r.Source,
				Gene:       r.Gene,
				Message:    msg,
				Type:       warningType(msg),
			})
		}
	}
	if len(details) == 0 {
		return nil
	}
	return &WarningReport{Summary: WarningSummary, Details: details}
}

func warningType(msg string) string {
	switch {
	case strings.Contains(msg, "No MANE transcript"):
		return "no_mane"
	case strings.Contains(msg, "not protein-coding"):
		return "non_coding"
	case strings.HasPrefix(msg, "Version "):
		return "version_not_found"
	case strings.HasPrefix(msg, "No direct GRCh37"):
		return "assembly_mapping"
	}
	return "notice"
}
