package domain

import "errors"

var (
	// ErrValidation marks input that must be rejected before any persistence
	// or network side effect happens.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a missing lote, proceso, medicion or certificado.
	// For mediciones, callers interpret it as "step not completed yet".
	ErrNotFound = errors.New("not found")

	// ErrConflict marks operations that collide with existing state, e.g.
	// resubmitting a medicion or submitting against a locked step.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized marks requests with unknown credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks authenticated requests whose role lacks the
	// required capability. Kept distinct from ErrUnauthorized.
	ErrForbidden = errors.New("forbidden")

	// ErrNoProcessAssigned marks a lote without an assigned proceso; such a
	// lote cannot enter the certification workflow. Distinct from
	// ErrNotFound so callers can tell "unknown lote" from "not workable yet".
	ErrNoProcessAssigned = errors.New("no process assigned")

	// ErrRateLimited marks submissions rejected by the throughput window.
	ErrRateLimited = errors.New("rate limited")
)
