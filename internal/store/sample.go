package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/ngsdb/varimport/internal/spool"
)

// Sample is a persisted sequenced specimen.
type Sample struct {
	ID       int
	Name     string
	Status   SampleStatus
	FamilyID *int
	RunID    *int
	FilterID *int
	BedID    *int
}

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

// randomColor returns a random hex display color for teams created on
// the fly during import.
func randomColor() string {
	return fmt.Sprintf("#%02X%02X%02X", rand.Intn(256), rand.Intn(256), rand.Intn(256))
}

// CreateSample creates a sample row for the job in the Importing
// state, resolving or creating its family, run and team references
// and looking up its filter and target-region panel.
func (s *Store) CreateSample(job *spool.Job) (*Sample, error) {
	id, err := s.nextID("samples_id_seq")
	if err != nil {
		return nil, err
	}

	sample := &Sample{ID: id, Name: job.SampleName, Status: StatusImporting}

	if job.Family != nil {
		familyID, err := s.getOrCreateFamily(job.Family)
		if err != nil {
			return nil, err
		}
		sample.FamilyID = familyID
	}
	if job.Run != nil {
		runID, err := s.getOrCreateRun(job.Run)
		if err != nil {
			return nil, err
		}
		sample.RunID = runID
	}
	if job.Filter != nil {
		sample.FilterID, err = s.lookupRef("filters", job.Filter)
		if err != nil {
			return nil, err
		}
	}
	if job.Bed != nil {
		sample.BedID, err = s.lookupRef("beds", job.Bed)
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.db.Exec(
		`INSERT INTO samples (id, samplename, status, family_id, run_id, filter_id, bed_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sample.ID, sample.Name, int(sample.Status),
		sample.FamilyID, sample.RunID, sample.FilterID, sample.BedID,
	); err != nil {
		return nil, fmt.Errorf("create sample %s: %w", job.SampleName, err)
	}

	for _, teamRef := range job.Teams {
		teamID, err := s.getOrCreateTeam(&teamRef)
		if err != nil {
			return nil, err
		}
		if teamID == nil {
			continue
		}
		if _, err := s.db.Exec(
			`INSERT INTO sample2team (sample_id, team_id) VALUES (?, ?)`,
			sample.ID, *teamID,
		); err != nil {
			return nil, fmt.Errorf("link sample %d to team %d: %w", sample.ID, *teamID, err)
		}
	}

	s.logger.Info("sample created",
		zap.Int("id", sample.ID),
		zap.String("name", sample.Name))
	return sample, nil
}

// getOrCreateFamily resolves a family reference, creating the row
// when only an unknown name is given.
func (s *Store) getOrCreateFamily(ref *spool.Ref) (*int, error) {
	if id, err := s.lookupRef("families", ref); err != nil || id != nil {
		return id, err
	}
	if ref.Name == "" {
		return nil, nil
	}
	id, err := s.nextID("families_id_seq")
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(`INSERT INTO families (id, name) VALUES (?, ?)`, id, ref.Name); err != nil {
		return nil, fmt.Errorf("create family %s: %w", ref.Name, err)
	}
	s.logger.Info("family created", zap.String("name", ref.Name))
	return &id, nil
}

// getOrCreateRun resolves a run reference. A known run with no alias
// picks up the alias from the job.
func (s *Store) getOrCreateRun(ref *spool.RunRef) (*int, error) {
	if ref.ID != 0 {
		return s.lookupRef("runs", &spool.Ref{ID: ref.ID})
	}
	if ref.Name == "" {
		return nil, nil
	}

	var id int
	var alias sql.NullString
	err := s.db.QueryRow(`SELECT id, alias FROM runs WHERE name = ?`, ref.Name).Scan(&id, &alias)
	if err == nil {
		if !alias.Valid && ref.Alias != "" {
			if _, err := s.db.Exec(`UPDATE runs SET alias = ? WHERE id = ?`, ref.Alias, id); err != nil {
				return nil, fmt.Errorf("update run alias: %w", err)
			}
		}
		return &id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup run %s: %w", ref.Name, err)
	}

	id, err = s.nextID("runs_id_seq")
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(
		`INSERT INTO runs (id, name, alias) VALUES (?, ?, ?)`,
		id, ref.Name, nullString(ref.Alias),
	); err != nil {
		return nil, fmt.Errorf("create run %s: %w", ref.Name, err)
	}
	s.logger.Info("run created", zap.String("name", ref.Name))
	return &id, nil
}

// getOrCreateTeam resolves a team reference, creating it with the
// given display color, or a random one when the color is invalid.
func (s *Store) getOrCreateTeam(ref *spool.TeamRef) (*int, error) {
	if id, err := s.lookupRef("teams", &spool.Ref{ID: ref.ID, Name: ref.Name}); err != nil || id != nil {
		return id, err
	}
	if ref.Name == "" {
		return nil, nil
	}

	color := ref.Color
	if !hexColorRe.MatchString(color) {
		color = randomColor()
	}
	id, err := s.nextID("teams_id_seq")
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(
		`INSERT INTO teams (id, name, color) VALUES (?, ?, ?)`,
		id, ref.Name, color,
	); err != nil {
		return nil, fmt.Errorf("create team %s: %w", ref.Name, err)
	}
	s.logger.Info("team created", zap.String("name", ref.Name), zap.String("color", color))
	return &id, nil
}

// lookupRef resolves a reference by id, then by name. Returns nil
// without error when neither matches.
func (s *Store) lookupRef(table string, ref *spool.Ref) (*int, error) {
	if ref.ID != 0 {
		var id int
		err := s.db.QueryRow(fmt.Sprintf(`SELECT id FROM %s WHERE id = ?`, table), ref.ID).Scan(&id)
		if err == nil {
			return &id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lookup %s %d: %w", table, ref.ID, err)
		}
	}
	if ref.Name != "" {
		var id int
		err := s.db.QueryRow(fmt.Sprintf(`SELECT id FROM %s WHERE name = ?`, table), ref.Name).Scan(&id)
		if err == nil {
			return &id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lookup %s %s: %w", table, ref.Name, err)
		}
	}
	return nil, nil
}

// SampleStatus returns the current workflow status of a sample.
func (s *Store) SampleStatus(id int) (SampleStatus, error) {
	var status int
	if err := s.db.QueryRow(`SELECT status FROM samples WHERE id = ?`, id).Scan(&status); err != nil {
		return 0, fmt.Errorf("lookup sample %d status: %w", id, err)
	}
	return SampleStatus(status), nil
}

// SetSampleStatus unconditionally sets the sample status. The import
// driver uses this for its own Importing→New/Error transitions.
func (s *Store) SetSampleStatus(id int, status SampleStatus) error {
	if _, err := s.db.Exec(`UPDATE samples SET status = ? WHERE id = ?`, int(status), id); err != nil {
		return fmt.Errorf("set sample %d status: %w", id, err)
	}
	return nil
}

// CompareAndSetStatus advances the sample status only when the
// current value matches from. Returns false when the sample was in a
// different state. This is the primitive the surrounding application
// builds its guarded transitions (e.g. to Validated) on.
func (s *Store) CompareAndSetStatus(id int, from, to SampleStatus) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE samples SET status = ? WHERE id = ? AND status = ?`,
		int(to), id, int(from),
	)
	if err != nil {
		return false, fmt.Errorf("update sample %d status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update sample %d status: %w", id, err)
	}
	return n == 1, nil
}

// AddHistory appends an audit trail entry for a sample.
func (s *Store) AddHistory(sampleID, userID int, action string) error {
	if _, err := s.db.Exec(
		`INSERT INTO history (sample_id, user_id, date, action) VALUES (?, ?, ?, ?)`,
		sampleID, userID, time.Now(), action,
	); err != nil {
		return fmt.Errorf("add history for sample %d: %w", sampleID, err)
	}
	return nil
}

// AddSampleComment records a diagnostic comment on a sample.
func (s *Store) AddSampleComment(sampleID, userID int, comment string) error {
	id, err := s.nextID("comments_id_seq")
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(
		`INSERT INTO sample_comments (id, sample_id, user_id, date, comment) VALUES (?, ?, ?, ?, ?)`,
		id, sampleID, userID, time.Now(), comment,
	); err != nil {
		return fmt.Errorf("add comment for sample %d: %w", sampleID, err)
	}
	return nil
}

// nullString maps "" to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
