package unireservas

import "github.com/google/uuid"

// pendingMutation records an optimistic local change. The snapshot is taken
// before the change is applied; confirm drops it, rollback hands it back so
// the caller can restore it.
type pendingMutation[T any] struct {
	id       string
	key      string
	snapshot T
	settled  bool
}

func newPendingMutation[T any](key string, snapshot T) *pendingMutation[T] {
	return &pendingMutation[T]{id: uuid.NewString(), key: key, snapshot: snapshot}
}

func (m *pendingMutation[T]) confirm() {
	m.settled = true
}

// rollback returns the snapshot once; later calls return ok=false.
func (m *pendingMutation[T]) rollback() (snapshot T, ok bool) {
	if m.settled {
		return snapshot, false
	}
	m.settled = true
	return m.snapshot, true
}
