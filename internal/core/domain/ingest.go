package domain

import "time"

// IndexSchemaVersion tags persisted ingest state. Bumping it forces every
// document to be re-embedded on the next pass.
const IndexSchemaVersion = 2

// DocumentStatus is the outcome recorded for a tracked document.
type DocumentStatus string

// Document statuses.
const (
	StatusPending   DocumentStatus = "pending"
	StatusCompleted DocumentStatus = "completed"
	StatusError     DocumentStatus = "error"
)

// DocumentState is the tracking record for one policy file.
type DocumentState struct {
	// Hash is the hex sha256 of the content last ingested.
	Hash string `toml:"hash" json:"hash"`

	// Status is the outcome of the last ingestion attempt.
	Status DocumentStatus `toml:"status" json:"status"`

	// Error holds the failure message when Status is StatusError.
	Error string `toml:"error,omitempty" json:"error,omitempty"`

	// Chunks is how many chunks were stored.
	Chunks int `toml:"chunks" json:"chunks"`

	// UpdatedAt is when the record last changed.
	UpdatedAt time.Time `toml:"updated_at" json:"updated_at"`
}

// IngestState maps filenames to tracking records under a schema version.
type IngestState struct {
	SchemaVersion int                      `toml:"schema_version" json:"schema_version"`
	Documents     map[string]DocumentState `toml:"documents" json:"documents"`
}

// NewIngestState returns an empty state at the current schema version.
func NewIngestState() *IngestState {
	return &IngestState{
		SchemaVersion: IndexSchemaVersion,
		Documents:     make(map[string]DocumentState),
	}
}

// ChangeKind classifies a document during an ingestion pass.
type ChangeKind string

// Change kinds.
const (
	ChangeUnseen    ChangeKind = "unseen"
	ChangeUnchanged ChangeKind = "unchanged"
	ChangeChanged   ChangeKind = "changed"
	ChangeRemoved   ChangeKind = "removed"
)

// Classify decides how a present or absent file relates to its record.
// present=false means the file is no longer in the policy directory.
func (s *IngestState) Classify(name, hash string, present bool) ChangeKind {
	rec, tracked := s.Documents[name]
	switch {
	case !present && tracked:
		return ChangeRemoved
	case !tracked:
		return ChangeUnseen
	case s.SchemaVersion != IndexSchemaVersion:
		return ChangeChanged
	case rec.Hash == hash && rec.Status == StatusCompleted:
		return ChangeUnchanged
	default:
		return ChangeChanged
	}
}

// DocumentOutcome reports what a pass did with one document.
type DocumentOutcome struct {
	Name   string         `json:"name"`
	Change ChangeKind     `json:"change"`
	Status DocumentStatus `json:"status,omitempty"`
	Chunks int            `json:"chunks"`
	Error  string         `json:"error,omitempty"`
}

// IngestReport summarises one ingestion pass.
type IngestReport struct {
	Outcomes  []DocumentOutcome `json:"outcomes"`
	Unseen    int               `json:"unseen"`
	Unchanged int               `json:"unchanged"`
	Changed   int               `json:"changed"`
	Removed   int               `json:"removed"`
	Failed    int               `json:"failed"`
	Duration  time.Duration     `json:"duration"`
}

// Record appends an outcome and bumps the matching counters.
func (r *IngestReport) Record(o DocumentOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Change {
	case ChangeUnseen:
		r.Unseen++
	case ChangeUnchanged:
		r.Unchanged++
	case ChangeChanged:
		r.Changed++
	case ChangeRemoved:
		r.Removed++
	}
	if o.Status == StatusError {
		r.Failed++
	}
}

// Mutated reports whether the pass touched the store.
func (r *IngestReport) Mutated() bool {
	return r.Unseen+r.Changed+r.Removed > 0
}
