package selector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Choices maps upper-cased gene symbol -> disambiguation choice
// (accession or MANE label), supplied ahead of resolution.
type Choices map[string]string

// Lookup returns the choice for a gene, case-insensitively.
func (c Choices) Lookup(gene string) (string, bool) {
	v, ok := c[strings.ToUpper(gene)]
	return v, ok
}

// LoadChoices loads decisions from a TSV file with columns gene and choice.
func LoadChoices(path string) (Choices, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open choices file: %w", err)
	}
	defer f.Close()

	return ParseChoices(f)
}

// ParseChoices parses gene<TAB>choice lines. An optional header whose first
// column is "gene" and lines starting with '#' are skipped. Later lines
// override earlier ones.
func ParseChoices(reader io.Reader) (Choices, error) {
	choices := make(Choices)
	scanner := bufio.NewScanner(reader)

	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(fields[0]), "gene") {
				continue
			}
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("choices line %q: expected gene<TAB>choice", line)
		}

		gene := strings.TrimSpace(fields[0])
		choice := strings.TrimSpace(fields[1])
		if gene == "" || choice == "" {
			continue
		}
		choices[strings.ToUpper(gene)] = choice
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan choices: %w", err)
	}

	return choices, nil
}
