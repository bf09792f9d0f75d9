package topic

import (
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Entry is a value registered under a pattern.
type Entry[V any] struct {
	Pattern Pattern
	Value   V
}

// Name returns the raw pattern string the entry is keyed by.
func (e *Entry[V]) Name() string {
	return e.Pattern.String()
}

// Match is a single lookup hit.
// Exact is true when the entry key equals the looked-up string verbatim;
// exact hits carry no captures.
type Match[V any] struct {
	Entry    *Entry[V]
	Captures []string
	Exact    bool
}

// Index maps pattern strings to values, one entry per distinct string.
// Iteration order is insertion order.
type Index[V any] struct {
	entries *orderedmap.OrderedMap[string, *Entry[V]]
}

// NewIndex creates an empty index.
func NewIndex[V any]() *Index[V] {
	return &Index[V]{
		entries: orderedmap.New[string, *Entry[V]](),
	}
}

// Get returns the entry registered under name.
func (ix *Index[V]) Get(name string) (*Entry[V], bool) {
	return ix.entries.Get(name)
}

// GetOrCreate returns the entry registered under name, creating it with the
// value returned by create if absent. The boolean reports whether the entry
// was created.
func (ix *Index[V]) GetOrCreate(name string, create func() V) (*Entry[V], bool) {
	if e, ok := ix.entries.Get(name); ok {
		return e, false
	}
	e := &Entry[V]{
		Pattern: Compile(name),
		Value:   create(),
	}
	ix.entries.Set(name, e)
	return e, true
}

// Delete removes the entry registered under name.
func (ix *Index[V]) Delete(name string) bool {
	_, ok := ix.entries.Delete(name)
	return ok
}

// Len returns the number of registered patterns.
func (ix *Index[V]) Len() int {
	return ix.entries.Len()
}

// All yields every entry in insertion order.
func (ix *Index[V]) All() iter.Seq[*Entry[V]] {
	return func(yield func(*Entry[V]) bool) {
		for pair := ix.entries.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Value) {
				return
			}
		}
	}
}

// Lookup yields the entries whose pattern matches a concrete topic.
// The entry keyed by topic itself comes first without invoking its matcher;
// every other entry follows in insertion order.
// The index must not be modified while the sequence is being consumed.
func (ix *Index[V]) Lookup(topic string) iter.Seq[Match[V]] {
	return func(yield func(Match[V]) bool) {
		if e, ok := ix.entries.Get(topic); ok {
			if !yield(Match[V]{Entry: e, Exact: true}) {
				return
			}
		}
		for pair := ix.entries.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Key == topic {
				continue
			}
			caps, ok := pair.Value.Pattern.Match(topic)
			if !ok {
				continue
			}
			if !yield(Match[V]{Entry: pair.Value, Captures: caps}) {
				return
			}
		}
	}
}

// Select yields the entries whose key satisfies query, the reverse direction
// of Lookup: query may carry wildcards and the keys are treated as concrete
// topics. The entry keyed by the query string itself comes first.
// The index must not be modified while the sequence is being consumed.
func (ix *Index[V]) Select(query Pattern) iter.Seq[Match[V]] {
	return func(yield func(Match[V]) bool) {
		name := query.String()
		if e, ok := ix.entries.Get(name); ok {
			if !yield(Match[V]{Entry: e, Exact: true}) {
				return
			}
		}
		for pair := ix.entries.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Key == name {
				continue
			}
			caps, ok := query.Match(pair.Key)
			if !ok {
				continue
			}
			if !yield(Match[V]{Entry: pair.Value, Captures: caps}) {
				return
			}
		}
	}
}
