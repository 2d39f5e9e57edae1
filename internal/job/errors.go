package job

import "fmt"

// ResolutionError reports that a picked source could not be materialized locally.
type ResolutionError struct {
	URI string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve failed: %v", e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// EngineError reports a non-zero or erroneous engine status for an operation.
type EngineError struct {
	// Op is the pipeline operation (probe, extract-frame, transcode).
	Op         string
	StatusCode int
	Err        error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s error: status %d", e.Op, e.StatusCode)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// PersistError reports that a granted write to permanent storage failed.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist failed: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
