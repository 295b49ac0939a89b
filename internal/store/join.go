package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDuplicateLink reports an attempt to link a (variant, sample)
// pair that is already linked. The existing row is left untouched;
// the import records the conflict and continues with the next
// variant.
var ErrDuplicateLink = errors.New("variant already linked to sample")

// VariantLink is the per-sample observation of a variant: the join
// row carrying the call metrics from the source file.
type VariantLink struct {
	VariantID    string
	SampleID     int
	Depth        int
	AllelicDepth int
	FilterTags   []string
	Reported     bool
	Hidden       bool
}

// LinkVariantToSample inserts the join row for a (variant, sample)
// pair. A pair that is already linked returns ErrDuplicateLink.
func (s *Store) LinkVariantToSample(link *VariantLink) error {
	var exists int
	err := s.db.QueryRow(
		`SELECT 1 FROM var2sample WHERE variant_id = ? AND sample_id = ?`,
		link.VariantID, link.SampleID,
	).Scan(&exists)
	if err == nil {
		return fmt.Errorf("link %s to sample %d: %w", link.VariantID, link.SampleID, ErrDuplicateLink)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup link %s/%d: %w", link.VariantID, link.SampleID, err)
	}

	tags, err := json.Marshal(link.FilterTags)
	if err != nil {
		return fmt.Errorf("encode filter tags: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO var2sample (variant_id, sample_id, depth, allelic_depth, filter, reported, hidden)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		link.VariantID, link.SampleID, link.Depth, link.AllelicDepth, string(tags),
		link.Reported, link.Hidden,
	); err != nil {
		return fmt.Errorf("link %s to sample %d: %w", link.VariantID, link.SampleID, err)
	}
	return nil
}

// VariantLinks returns the join rows for a sample.
func (s *Store) VariantLinks(sampleID int) ([]*VariantLink, error) {
	rows, err := s.db.Query(
		`SELECT variant_id, sample_id, depth, allelic_depth, filter, reported, hidden
		 FROM var2sample WHERE sample_id = ? ORDER BY variant_id`,
		sampleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list links for sample %d: %w", sampleID, err)
	}
	defer rows.Close()

	var links []*VariantLink
	for rows.Next() {
		link := &VariantLink{}
		var tags sql.NullString
		if err := rows.Scan(
			&link.VariantID, &link.SampleID, &link.Depth, &link.AllelicDepth,
			&tags, &link.Reported, &link.Hidden,
		); err != nil {
			return nil, fmt.Errorf("scan link row: %w", err)
		}
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &link.FilterTags); err != nil {
				return nil, fmt.Errorf("decode filter tags: %w", err)
			}
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// DeleteSample removes a sample and cascades to its join rows,
// history, comments and team links.
func (s *Store) DeleteSample(sampleID int) error {
	stmts := []string{
		`DELETE FROM var2sample WHERE sample_id = ?`,
		`DELETE FROM history WHERE sample_id = ?`,
		`DELETE FROM sample_comments WHERE sample_id = ?`,
		`DELETE FROM sample2team WHERE sample_id = ?`,
		`DELETE FROM samples WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt, sampleID); err != nil {
			return fmt.Errorf("delete sample %d: %w", sampleID, err)
		}
	}
	return nil
}
