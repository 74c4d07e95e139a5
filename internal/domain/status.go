package domain

// GenerationStatus is the lifecycle state of a GenerationRequest.
//
// The machine has exactly three states and one legal transition step:
//
//	pending → completed
//	pending → failed
//
// Terminal states never change; a retry is a brand-new request. All
// transition checks go through CanTransition so the rule lives in one place.
type GenerationStatus string

const (
	// StatusPending is the initial state of every generation request.
	StatusPending GenerationStatus = "pending"
	// StatusCompleted marks a request whose question batch was persisted.
	StatusCompleted GenerationStatus = "completed"
	// StatusFailed marks a request whose external call or result parsing
	// failed; ErrorDetail carries the sanitized reason.
	StatusFailed GenerationStatus = "failed"
)

// Valid reports whether s is one of the three named states.
func (s GenerationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is a final state.
func (s GenerationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is legal. Only
// pending→completed and pending→failed are allowed.
func (s GenerationStatus) CanTransition(next GenerationStatus) bool {
	return s == StatusPending && next.Terminal()
}
