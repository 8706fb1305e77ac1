package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Fixture is the on-disk JSON layout for offline gateway data.
type Fixture struct {
	Transcripts []*Transcript  `json:"transcripts"`
	Variants    []*Variant     `json:"variants"`
	Genes       []*GeneFeature `json:"genes"`
}

// Loader loads gateway data from JSON fixture files (used for offline runs and testing).
type Loader struct {
	path string
}

// NewLoader creates a loader for a single fixture file or a directory of *.json files.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// LoadAll loads every fixture file under the loader's path into the cache.
func (l *Loader) LoadAll(c *Cache) error {
	info, err := os.Stat(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("fixture path not found: %s", l.path)
		}
		return fmt.Errorf("stat fixture path: %w", err)
	}

	if !info.IsDir() {
		return l.loadJSONFile(c, l.path)
	}

	jsonFiles, err := filepath.Glob(filepath.Join(l.path, "*.json"))
	if err != nil {
		return fmt.Errorf("glob json files: %w", err)
	}
	for _, f := range jsonFiles {
		if err := l.loadJSONFile(c, f); err != nil {
			return fmt.Errorf("load json file %s: %w", f, err)
		}
	}
	return nil
}

// loadJSONFile loads transcripts, variants and genes from a JSON file.
func (l *Loader) loadJSONFile(c *Cache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var fx Fixture
	if err := json.NewDecoder(f).Decode(&fx); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	for _, t := range fx.Transcripts {
		t.ManeStatus = NormalizeManeStatus(t.ManeStatus)
		t.Chrom = normalizeChrom(t.Chrom)
		c.AddTranscript(t)
	}
	for _, v := range fx.Variants {
		v.Chrom = normalizeChrom(v.Chrom)
		c.AddVariant(v)
	}
	for _, g := range fx.Genes {
		g.Chrom = normalizeChrom(g.Chrom)
		c.AddGene(g)
	}
	return nil
}

func normalizeChrom(chrom string) string {
	c := strings.ToUpper(strings.TrimSpace(chrom))
	c = strings.TrimPrefix(c, "CHR")
	if c == "MT" {
		c = "M"
	}
	return c
}

// ensemblChrom maps a normalized chromosome back to the Ensembl sequence
// name, which spells the mitochondrion MT.
func ensemblChrom(chrom string) string {
	if chrom == "M" {
		return "MT"
	}
	return chrom
}
