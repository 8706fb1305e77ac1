package identifier

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Batch is the classified, deduplicated form of an input list.
type Batch struct {
	Identifiers []Identifier      // Valid identifiers in input order
	Malformed   []*MalformedError // Rejected tokens; excluded from the batch
}

// Options control batch classification.
type Options struct {
	// SilentDedup drops repeated tokens without failing. Used for
	// panel-derived gene lists where repeats are expected.
	SilentDedup bool
}

// ClassifyBatch classifies tokens in order and removes duplicates
// (first occurrence wins). Unless opts.SilentDedup is set, any duplicate
// fails the whole batch with a *DuplicateIdentifierError.
// Malformed tokens are collected and excluded; the rest proceed.
func ClassifyBatch(tokens []string, opts Options) (*Batch, error) {
	b := &Batch{}
	seen := make(map[string]bool, len(tokens))
	dupSeen := make(map[string]bool)
	var dups []string

	for _, tok := range tokens {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		id, err := Classify(tok)
		if err != nil {
			me, ok := err.(*MalformedError)
			if !ok {
				return nil, fmt.Errorf("classify %q: %w", tok, err)
			}
			b.Malformed = append(b.Malformed, me)
			continue
		}

		key := dedupKey(id)
		if seen[key] {
			if !dupSeen[key] {
				dupSeen[key] = true
				dups = append(dups, id.Token)
			}
			continue
		}
		seen[key] = true
		id.Index = len(b.Identifiers)
		b.Identifiers = append(b.Identifiers, id)
	}

	if len(dups) > 0 && !opts.SilentDedup {
		return nil, &DuplicateIdentifierError{Tokens: dups}
	}
	return b, nil
}

// Count returns the number of identifiers of the given kind.
func (b *Batch) Count(kind Kind) int {
	n := 0
	for _, id := range b.Identifiers {
		if id.Kind == kind {
			n++
		}
	}
	return n
}

func dedupKey(id Identifier) string {
	if id.Kind == CoordinateRange {
		return id.Region.String()
	}
	return strings.ToUpper(id.Token)
}

// SplitTokens splits free text or CSV content into identifier tokens.
// Whitespace, commas and semicolons separate tokens.
func SplitTokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ',', ';', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	})
}

// SplitCoordinates splits coordinate input on newlines and commas.
func SplitCoordinates(text string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	}) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TokensFromBED extracts the name column (4th) of an uploaded BED file.
// Names of the form "GENE;ACCESSION" yield the gene part.
// Header, track and browser lines are skipped.
func TokensFromBED(r io.Reader) ([]string, error) {
	var tokens []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			continue
		}
		name := fields[3]
		if gene, _, ok := strings.Cut(name, ";"); ok {
			name = gene
		}
		if name == "" || name == "." {
			continue
		}
		tokens = append(tokens, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read BED names: %w", err)
	}
	return tokens, nil
}
