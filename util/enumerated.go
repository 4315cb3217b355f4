package util

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// EnumSet assigns dense integer ids to values in insertion order.
type EnumSet[T comparable] struct {
	mu     sync.RWMutex
	Enum   map[T]int
	Index  []T
	Frozen bool
}

func (e *EnumSet[T]) RebuildIndex() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Index = make([]T, len(e.Enum))
	for k, v := range e.Enum {
		e.Index[v] = k
	}
}

// Add returns the id of value and whether it was newly added.
func (e *EnumSet[T]) Add(value T) (int, bool) {
	if e.Frozen {
		panic("Cannot add value to frozen enum set")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	enum, exists := e.Enum[value]
	if exists {
		return enum, false
	}
	enum = len(e.Index)
	e.Enum[value] = enum
	e.Index = append(e.Index, value)
	return enum, true
}

func (e *EnumSet[T]) IndexOf(value T) (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	enum, exists := e.Enum[value]
	return enum, exists
}

func (e *EnumSet[T]) ValueOf(index int) (T, error) {
	var zero T
	e.mu.RLock()
	if len(e.Index) != len(e.Enum) {
		e.mu.RUnlock()
		e.RebuildIndex()
		e.mu.RLock()
	}
	defer e.mu.RUnlock()
	if index < 0 || len(e.Index) <= index {
		return zero, errors.Errorf("unknown index requested: %v of %v", index, len(e.Index))
	}
	return e.Index[index], nil
}

func (e *EnumSet[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.Index)
}

func (e *EnumSet[T]) String() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fmt.Sprintf("%v", e.Index)
}

func NewEnumSet[T comparable](capacity int) *EnumSet[T] {
	return &EnumSet[T]{
		Enum:  make(map[T]int, capacity),
		Index: make([]T, 0, capacity),
	}
}
