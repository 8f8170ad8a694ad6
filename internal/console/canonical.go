package console

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/hkpass/console/internal/scoring"
)

// ApplyPolicy decides what happens when poll ticks resolve out of order.
type ApplyPolicy int

const (
	// ApplyLastWins applies every tick result, so a slow, older tick can
	// overwrite fresher data.
	ApplyLastWins ApplyPolicy = iota
	// ApplyNewestGeneration drops a tick result older than the newest one
	// already applied.
	ApplyNewestGeneration
)

func ParsePolicy(s string) (ApplyPolicy, error) {
	switch s {
	case "", "last-wins":
		return ApplyLastWins, nil
	case "newest-generation":
		return ApplyNewestGeneration, nil
	}
	return 0, fmt.Errorf("unknown stale tick policy %q", s)
}

func (p ApplyPolicy) String() string {
	if p == ApplyNewestGeneration {
		return "newest-generation"
	}
	return "last-wins"
}

// List is the canonical copy of one server-owned collection. It is
// replaced wholesale by poll ticks and patched one entity at a time after
// successful mutations.
//
// Mutations carry the newest tick generation started when they were
// written. Under ApplyNewestGeneration a tick with that generation or an
// older one fetched before the write and is dropped.
type List[T scoring.Entity] struct {
	policy ApplyPolicy

	mu     sync.RWMutex
	items  []T
	gen    uint64
	minGen uint64
	ready  bool
}

func NewList[T scoring.Entity](policy ApplyPolicy) *List[T] {
	return &List[T]{policy: policy}
}

// SetAll replaces the list with the result of tick gen. It reports whether
// the result was applied and whether the content differs from before.
func (l *List[T]) SetAll(gen uint64, items []T) (applied, changed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.policy == ApplyNewestGeneration && (gen < l.minGen || l.ready && gen < l.gen) {
		return false, false
	}
	changed = !l.ready || !sameContent(l.items, items)
	l.items = slices.Clone(items)
	if gen > l.gen || l.policy == ApplyLastWins {
		l.gen = gen
	}
	l.ready = true
	return true, changed
}

// Replace swaps the entity with the same id. It reports false when the
// entity is not cached. stamp is the newest tick generation started before
// the server returned item.
func (l *List[T]) Replace(stamp uint64, item T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(item.EntityID())
	if i < 0 {
		return false
	}
	l.items[i] = item
	l.raise(stamp)
	return true
}

// Add appends an entity the server just created.
func (l *List[T]) Add(stamp uint64, item T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.index(item.EntityID()); i >= 0 {
		l.items[i] = item
	} else {
		l.items = append(l.items, item)
	}
	l.raise(stamp)
}

func (l *List[T]) Remove(stamp uint64, id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if i < 0 {
		return false
	}
	l.items = slices.Delete(l.items, i, i+1)
	l.raise(stamp)
	return true
}

// raise must be called with l.mu held.
func (l *List[T]) raise(stamp uint64) {
	l.minGen = max(l.minGen, stamp+1)
}

func (l *List[T]) Find(id int64) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i := l.index(id); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// Snapshot returns a copy of the current list, never nil.
func (l *List[T]) Snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Generation is the tick generation of the last applied SetAll.
func (l *List[T]) Generation() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.gen
}

func (l *List[T]) Ready() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ready
}

func sameContent[T any](a, b []T) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// index must be called with l.mu held.
func (l *List[T]) index(id int64) int {
	return slices.IndexFunc(l.items, func(it T) bool { return it.EntityID() == id })
}

// Value is the canonical copy of a singleton resource such as settings.
type Value[T any] struct {
	policy ApplyPolicy

	mu     sync.RWMutex
	v      T
	gen    uint64
	minGen uint64
	ready  bool
}

func NewValue[T any](policy ApplyPolicy) *Value[T] {
	return &Value[T]{policy: policy}
}

func (v *Value[T]) Set(gen uint64, val T) (applied, changed bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.policy == ApplyNewestGeneration && (gen < v.minGen || v.ready && gen < v.gen) {
		return false, false
	}
	changed = !v.ready || !reflect.DeepEqual(v.v, val)
	v.v = val
	if gen > v.gen || v.policy == ApplyLastWins {
		v.gen = gen
	}
	v.ready = true
	return true, changed
}

// Replace stores a value returned by the server after tick stamp started.
func (v *Value[T]) Replace(stamp uint64, val T) {
	v.mu.Lock()
	v.v = val
	v.ready = true
	v.minGen = max(v.minGen, stamp+1)
	v.mu.Unlock()
}

func (v *Value[T]) Get() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.v, v.ready
}
