package domain

import "errors"

// ErrSessionNotFound is returned when a session ID is unknown, was deleted, or has expired.
var ErrSessionNotFound = errors.New("session not found")

// ErrRejected is returned by the resolver when no valid session was presented.
// It is deliberately distinct from ErrSessionNotFound.
var ErrRejected = errors.New("session rejected")

// ErrProductNotFound is returned when a product reference cannot be resolved in the catalog.
var ErrProductNotFound = errors.New("product not found")

// ErrProductLookupTimeout is returned when the catalog does not answer in time.
var ErrProductLookupTimeout = errors.New("product lookup timed out")

// ErrNoActiveWorkflow is returned when a workflow operation finds nothing started.
var ErrNoActiveWorkflow = errors.New("no active workflow")

// ErrInvalidPayload is returned when a partial payload is not a structured mapping of known blocks.
var ErrInvalidPayload = errors.New("invalid payload")

// ErrInvalidQuantity is returned when a cart quantity is not positive.
var ErrInvalidQuantity = errors.New("invalid quantity")

// ErrInvalidWorkflow is returned when a step sequence cannot form a workflow.
var ErrInvalidWorkflow = errors.New("invalid workflow")

// ErrCorruptSession signals an internal invariant violation in a stored session record.
var ErrCorruptSession = errors.New("corrupt session record")

// ErrCorruptWorkflow signals a stored workflow whose current step is not part of its sequence.
var ErrCorruptWorkflow = errors.New("corrupt workflow state")
