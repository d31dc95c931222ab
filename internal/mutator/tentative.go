package mutator

import (
	"sync"

	"github.com/google/uuid"
)

// Tentative records local patches that are waiting for a server answer.
// Each patch is tagged with the request it belongs to, so that one request
// can be confirmed or rolled back without undoing another request on the
// same entity.
type Tentative[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
}

type entry[V any] struct {
	base    V
	patches []patch[V]
}

type patch[V any] struct {
	tag   string
	apply func(V) V
}

func NewTentative[V any]() *Tentative[V] {
	return &Tentative[V]{entries: map[string]*entry[V]{}}
}

// Apply stacks fn on the entity id and returns the request tag together with
// the value to show. base is the settled value and is only used when no
// patch is pending for id.
func (t *Tentative[V]) Apply(id string, base V, fn func(V) V) (string, V) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		e = &entry[V]{base: base}
		t.entries[id] = e
	}
	tag := uuid.NewString()
	e.patches = append(e.patches, patch[V]{tag: tag, apply: fn})
	return tag, e.effective()
}

// Confirm folds the patch tag into the settled value.
func (t *Tentative[V]) Confirm(id, tag string) (V, bool) {
	return t.settle(id, tag, func(e *entry[V], p patch[V]) {
		e.base = p.apply(e.base)
	})
}

// ConfirmWith replaces the settled value with the server's answer and drops
// the patch tag. Other pending patches stay on top.
func (t *Tentative[V]) ConfirmWith(id, tag string, settled V) (V, bool) {
	return t.settle(id, tag, func(e *entry[V], _ patch[V]) {
		e.base = settled
	})
}

// Rollback drops the patch tag and returns what remains visible.
func (t *Tentative[V]) Rollback(id, tag string) (V, bool) {
	return t.settle(id, tag, func(*entry[V], patch[V]) {})
}

// Effective returns the settled value with all pending patches applied.
func (t *Tentative[V]) Effective(id string) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		var zero V
		return zero, false
	}
	return e.effective(), true
}

// Pending reports how many patches wait on id.
func (t *Tentative[V]) Pending(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok {
		return len(e.patches)
	}
	return 0
}

// Base returns the settled value of id if any patch is pending.
func (t *Tentative[V]) Base(id string) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok {
		return e.base, true
	}
	var zero V
	return zero, false
}

func (t *Tentative[V]) settle(id, tag string, fold func(*entry[V], patch[V])) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		var zero V
		return zero, false
	}

	for i, p := range e.patches {
		if p.tag != tag {
			continue
		}
		fold(e, p)
		e.patches = append(e.patches[:i:i], e.patches[i+1:]...)
		v := e.effective()
		if len(e.patches) == 0 {
			delete(t.entries, id)
		}
		return v, true
	}
	return e.effective(), false
}

func (e *entry[V]) effective() V {
	v := e.base
	for _, p := range e.patches {
		v = p.apply(v)
	}
	return v
}
