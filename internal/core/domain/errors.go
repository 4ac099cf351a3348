package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Recognition errors. These are recovered locally and shown to the
	// user as turn content; they never abort the orchestration.

	// ErrNoResult indicates the recognition backend returned nothing
	// for the image.
	ErrNoResult = errors.New("no result from recognition backend")

	// ErrNoText indicates recognition produced zero usable text lines:
	// either none at all, or every line was empty after trimming.
	ErrNoText = errors.New("no readable text detected in image")

	// ErrRecognitionUnavailable indicates the recognition backend is
	// not configured. OCR features are disabled without it.
	ErrRecognitionUnavailable = errors.New("recognition service unavailable")

	// ErrGenerationUnavailable indicates the generation backend is not
	// configured.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrNoActiveSession indicates an operation needed an active
	// session but none is loaded.
	ErrNoActiveSession = errors.New("no active session")

	// ErrStreamCancelled indicates an in-flight stream was abandoned
	// before normal termination; partial output is discarded, not
	// committed.
	ErrStreamCancelled = errors.New("stream cancelled")
)
