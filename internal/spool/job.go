// Package spool implements the marker-file job queue and its
// directory-level exclusive lock. Job state lives in the marker file
// suffix, so a crash leaves the state visible on disk.
package spool

import (
	"encoding/json"
	"fmt"
)

// MalformedJobError reports a marker payload missing a required key.
type MalformedJobError struct {
	Field string
}

func (e *MalformedJobError) Error() string {
	return fmt.Sprintf("malformed job payload: missing required field %q", e.Field)
}

// Ref identifies an existing entity by id, or one to look up (and
// possibly create) by name.
type Ref struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// RunRef identifies a sequencing run, with an optional display alias.
type RunRef struct {
	ID    int    `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Alias string `json:"alias,omitempty"`
}

// TeamRef identifies a team, with an optional display color.
type TeamRef struct {
	ID    int    `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Color string `json:"color,omitempty"`
}

// Job is the import request carried by a marker file.
type Job struct {
	SampleName string    `json:"samplename"`
	VCFPath    string    `json:"vcf_path"`
	Family     *Ref      `json:"family,omitempty"`
	Run        *RunRef   `json:"run,omitempty"`
	Filter     *Ref      `json:"filter,omitempty"`
	Bed        *Ref      `json:"bed,omitempty"`
	Teams      []TeamRef `json:"teams,omitempty"`
	UserID     int       `json:"userid,omitempty"`
	Genome     string    `json:"genome,omitempty"`
	Date       string    `json:"date,omitempty"`

	// Interface marks jobs submitted through the web application,
	// whose uploaded VCF is deleted after a successful import.
	Interface bool `json:"interface,omitempty"`
}

// ParseJob decodes and validates a marker payload. Missing required
// keys yield a *MalformedJobError; the job must be abandoned without
// side effects.
func ParseJob(data []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job payload: %w", err)
	}
	if job.SampleName == "" {
		return nil, &MalformedJobError{Field: "samplename"}
	}
	if job.VCFPath == "" {
		return nil, &MalformedJobError{Field: "vcf_path"}
	}
	return &job, nil
}
