package cache

import (
	"fmt"
	"strings"
)

// Assembly is a human reference genome build.
type Assembly string

const (
	GRCh37 Assembly = "GRCh37"
	GRCh38 Assembly = "GRCh38"
)

// ParseAssembly accepts GRCh37/GRCh38 (any case) and the UCSC aliases hg19/hg38.
func ParseAssembly(s string) (Assembly, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "grch37", "hg19":
		return GRCh37, nil
	case "grch38", "hg38":
		return GRCh38, nil
	}
	return "", fmt.Errorf("unknown assembly %q (expected GRCh37 or GRCh38)", s)
}

func (a Assembly) String() string {
	return string(a)
}
