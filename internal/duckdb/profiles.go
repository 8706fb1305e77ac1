package duckdb

import (
	"fmt"

	"github.com/inodb/vibe-bed/internal/profile"
)

// SaveProfile validates and stores a profile, replacing any with the same name.
func (s *Store) SaveProfile(p profile.Settings) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO profiles
		(name, padding_5, padding_3, snp_padding_5, snp_padding_3,
		 separate_snp_padding, include_5utr, include_3utr)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Padding5, p.Padding3, p.SNPPadding5, p.SNPPadding3,
		p.SeparateSNPPadding, p.Include5UTR, p.Include3UTR)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.Name, err)
	}
	return nil
}

// Profiles returns the stored profiles ordered by name.
func (s *Store) Profiles() ([]profile.Settings, error) {
	rows, err := s.db.Query(`SELECT name, padding_5, padding_3, snp_padding_5, snp_padding_3,
		separate_snp_padding, include_5utr, include_3utr
		FROM profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []profile.Settings
	for rows.Next() {
		var p profile.Settings
		if err := rows.Scan(&p.Name, &p.Padding5, &p.Padding3, &p.SNPPadding5, &p.SNPPadding3,
			&p.SeparateSNPPadding, &p.Include5UTR, &p.Include3UTR); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

// Registry returns the built-in profiles overlaid with the stored ones.
func (s *Store) Registry() (*profile.Registry, error) {
	stored, err := s.Profiles()
	if err != nil {
		return nil, err
	}
	return profile.NewRegistry(append(profile.Defaults(), stored...)...)
}
