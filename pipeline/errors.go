// Package pipeline orchestrates the publish pipeline and aggregates its
// outcome.
//
// This file defines the pipeline-level error taxonomy. Producing packages
// own their sentinels (archive.ErrPackaging, credential.ErrAborted,
// registry.ErrRejected, ...); the pipeline wraps them with the stage that
// failed and classifies the whole into a Status for reporting.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pithecene-io/stevedore/archive"
	"github.com/pithecene-io/stevedore/credential"
	"github.com/pithecene-io/stevedore/registry"
	"github.com/pithecene-io/stevedore/signer"
)

// ErrPartialUpload indicates the registry accepted the publish but one or
// more asset uploads failed. The release IS published; re-publishing the
// same version is the wrong response.
var ErrPartialUpload = errors.New("partial asset sync")

// PartialError carries the failed store keys after an accepted publish.
// Cause is set when sync could not run at all (e.g. the store client could
// not be built); per-file failures live in the keys alone.
type PartialError struct {
	FailedKeys []string
	Cause      error
}

func (e *PartialError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("published, but asset sync failed: %v", e.Cause)
	}
	return fmt.Sprintf("published, but %d asset upload(s) failed: %s",
		len(e.FailedKeys), strings.Join(e.FailedKeys, ", "))
}

// Is reports a match for ErrPartialUpload.
func (e *PartialError) Is(target error) bool {
	return target == ErrPartialUpload
}

// Unwrap exposes the underlying cause, if any.
func (e *PartialError) Unwrap() error {
	return e.Cause
}

// StageError wraps an underlying error with the pipeline stage that failed.
// It preserves the original error in the chain for errors.Is/As.
type StageError struct {
	// Stage is the pipeline stage (e.g. "archive", "submit").
	Stage string
	// Err is the underlying error.
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *StageError) Unwrap() error {
	return e.Err
}

func wrapStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// Status classifies a settled pipeline invocation.
type Status string

// Pipeline statuses. Partial, Rejected and SubmitFailed are deliberately
// distinct: they demand different operator responses.
const (
	// StatusPublished: registry accepted and every asset upload succeeded.
	StatusPublished Status = "published"
	// StatusPartial: registry accepted but asset sync did not fully complete.
	StatusPartial Status = "partial"
	// StatusRejected: registry processed and declined the request.
	StatusRejected Status = "rejected"
	// StatusSubmitFailed: no interpretable registry response was obtained.
	StatusSubmitFailed Status = "submission_failed"
	// StatusAborted: the operator declined credential entry.
	StatusAborted Status = "aborted"
	// StatusFailed: a local stage failed before submission.
	StatusFailed Status = "failed"
)

// Classify maps a pipeline error to its Status. A nil error is a full
// publish.
func Classify(err error) Status {
	switch {
	case err == nil:
		return StatusPublished
	case errors.Is(err, ErrPartialUpload):
		return StatusPartial
	case errors.Is(err, registry.ErrRejected):
		return StatusRejected
	case errors.Is(err, registry.ErrTransport):
		return StatusSubmitFailed
	case errors.Is(err, credential.ErrAborted):
		return StatusAborted
	case errors.Is(err, archive.ErrPackaging),
		errors.Is(err, archive.ErrHash),
		errors.Is(err, credential.ErrStoreUnavailable),
		errors.Is(err, signer.ErrSignatureBuild):
		return StatusFailed
	default:
		return StatusFailed
	}
}
