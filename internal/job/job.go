// Package job provides the Job aggregate for a single media session and the
// Controller that sequences the pipeline over it.
// It includes the Job entity with its state machine transitions and the
// append-only activity log.
package job

import (
	"errors"
	"slices"
	"time"

	"github.com/maauso/mediajob/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusIdle indicates no operation is running.
	StatusIdle Status = "IDLE"
	// StatusPicking indicates the source selector is open.
	StatusPicking Status = "PICKING"
	// StatusResolving indicates the picked source is being materialized locally.
	StatusResolving Status = "RESOLVING"
	// StatusProbing indicates media properties are being read.
	StatusProbing Status = "PROBING"
	// StatusExtractingFrame indicates a still frame is being written.
	StatusExtractingFrame Status = "EXTRACTING_FRAME"
	// StatusTranscoding indicates the video is being re-encoded.
	StatusTranscoding Status = "TRANSCODING"
	// StatusPersisting indicates the transcoded artifact is being saved.
	StatusPersisting Status = "PERSISTING"
	// StatusReady indicates the last operation produced an artifact.
	StatusReady Status = "READY"
	// StatusFailed indicates the last operation failed.
	StatusFailed Status = "FAILED"
)

// IsBusy reports whether the status is an in-flight state.
func (s Status) IsBusy() bool {
	switch s {
	case StatusIdle, StatusReady, StatusFailed:
		return false
	default:
		return true
	}
}

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// Starting points for a new request.
var restingTargets = []Status{StatusPicking, StatusResolving, StatusProbing, StatusExtractingFrame, StatusTranscoding}

// validTransitions defines which state transitions are allowed.
// PICKING may return to any resting state because a cancelled pick restores
// whatever status preceded it.
var validTransitions = map[Status][]Status{
	StatusIdle:            restingTargets,
	StatusReady:           restingTargets,
	StatusFailed:          restingTargets,
	StatusPicking:         {StatusResolving, StatusIdle, StatusReady, StatusFailed},
	StatusResolving:       {StatusIdle, StatusFailed},
	StatusProbing:         {StatusIdle, StatusFailed},
	StatusExtractingFrame: {StatusReady, StatusFailed},
	StatusTranscoding:     {StatusPersisting, StatusFailed},
	StatusPersisting:      {StatusReady, StatusFailed},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

// Entry is one timestamped line of the activity log.
type Entry struct {
	At   time.Time
	Text string
}

// Job represents one user's pick-and-operate media session.
// A Job is not safe for concurrent use; the Controller serializes access.
type Job struct {
	// ID is the unique identifier for this session.
	ID string
	// SourceURI is the reference the user picked.
	SourceURI string
	// StagedPath is the locally readable path of the resolved source.
	StagedPath string
	// ThumbnailPath is the last extracted still frame.
	ThumbnailPath string
	// OutputPath is the last transcoded artifact, set once persisted.
	OutputPath string
	// Location is where OutputPath was persisted (library path or URL).
	Location string
	// Status is the current job state.
	Status Status
	// Error contains the message of the last failure.
	Error string
	// Log is the append-only activity record.
	Log []Entry
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
}

// New creates an empty Job in IDLE status whose log starts at now.
func New(now time.Time) *Job {
	return NewWithID(id.Generate(), now)
}

// NewWithID creates an empty Job with the specified ID.
// Useful for testing or when ID needs to be externally generated.
func NewWithID(jobID string, now time.Time) *Job {
	return &Job{
		ID:        jobID,
		Status:    StatusIdle,
		Log:       []Entry{{At: now, Text: "log started"}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status, at time.Time) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}
	j.Status = status
	j.UpdatedAt = at
	return nil
}

// Append adds a line to the activity log.
func (j *Job) Append(at time.Time, text string) {
	j.Log = append(j.Log, Entry{At: at, Text: text})
	j.UpdatedAt = at
}

// ResetSource records a newly picked source and clears every path derived
// from the previous one.
func (j *Job) ResetSource(uri string) {
	j.SourceURI = uri
	j.StagedPath = ""
	j.ThumbnailPath = ""
	j.OutputPath = ""
	j.Location = ""
}

// IsBusy returns true while an operation is in flight.
func (j *Job) IsBusy() bool {
	return j.Status.IsBusy()
}

// Snapshot is an immutable copy of a Job for readers.
type Snapshot struct {
	ID            string
	SourceURI     string
	StagedPath    string
	ThumbnailPath string
	OutputPath    string
	Location      string
	Status        Status
	IsBusy        bool
	Error         string
	Log           []Entry
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Snapshot creates a deep copy of the job for safe reads.
func (j *Job) Snapshot() Snapshot {
	return Snapshot{
		ID:            j.ID,
		SourceURI:     j.SourceURI,
		StagedPath:    j.StagedPath,
		ThumbnailPath: j.ThumbnailPath,
		OutputPath:    j.OutputPath,
		Location:      j.Location,
		Status:        j.Status,
		IsBusy:        j.IsBusy(),
		Error:         j.Error,
		Log:           slices.Clone(j.Log),
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}
