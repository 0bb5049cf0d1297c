package models

// DocumentStatus is the lifecycle state of a document.
type DocumentStatus string

const (
	StatusDraft      DocumentStatus = "DRAFT"
	StatusPending    DocumentStatus = "PENDING"
	StatusInProgress DocumentStatus = "IN_PROGRESS"
	StatusOnHold     DocumentStatus = "ON_HOLD"
	StatusCompleted  DocumentStatus = "COMPLETED"
	StatusRejected   DocumentStatus = "REJECTED"
	StatusArchived   DocumentStatus = "ARCHIVED"
)

// statusTransitions is the full transition table. ARCHIVED is terminal.
var statusTransitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:      {StatusPending, StatusCompleted},
	StatusPending:    {StatusInProgress, StatusCompleted, StatusRejected},
	StatusInProgress: {StatusCompleted, StatusPending, StatusOnHold},
	StatusOnHold:     {StatusInProgress, StatusPending},
	StatusCompleted:  {StatusArchived},
	StatusRejected:   {StatusPending, StatusDraft},
	StatusArchived:   {},
}

// Valid reports whether s is one of the seven known statuses.
func (s DocumentStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Terminal reports whether the document has reached the end of its lifecycle.
func (s DocumentStatus) Terminal() bool {
	return s == StatusArchived
}

// AllowedTransitions returns the statuses reachable from s. The returned
// slice is a copy; callers may keep it.
func (s DocumentStatus) AllowedTransitions() []DocumentStatus {
	allowed := statusTransitions[s]
	out := make([]DocumentStatus, len(allowed))
	copy(out, allowed)
	return out
}

// CanTransitionTo reports whether s -> target is a legal transition.
// A transition to the same state is always allowed (treated as a no-op).
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	if s == target {
		return true
	}
	for _, next := range statusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Priority orders how urgently a document should be handled.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)
