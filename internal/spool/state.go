package spool

// State is the processing state of a job, encoded on disk as the
// marker file suffix.
type State int

const (
	// Pending jobs wait in the spool for a worker.
	Pending State = iota
	// Claimed jobs are being processed; the marker rename to this
	// state happens under the directory lock.
	Claimed
	// Done jobs have no marker left: the file is deleted on success.
	Done
	// Failed jobs keep their marker for manual inspection.
	Failed
)

// Suffix returns the marker file suffix for the state. Done has no
// suffix because a successful job's marker is deleted.
func (s State) Suffix() string {
	switch s {
	case Pending:
		return ".token"
	case Claimed:
		return ".treat"
	case Failed:
		return ".error"
	}
	return ""
}

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Claimed:
		return "claimed"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// lockName is the exclusive lock file gating claims on a spool
// directory.
const lockName = ".lock"
