package store

import (
	"github.com/zeusync/scenestore/internal/core/events"
	"github.com/zeusync/scenestore/internal/core/observability/log"
)

// Subscribe calls fn after every change of store state. The returned func
// cancels the subscription; calling it more than once is safe.
func (s *Store) Subscribe(fn func()) func() {
	return on(s, func(events.Changed) { fn() })
}

// OnChanged is Subscribe with the new scene version.
func (s *Store) OnChanged(fn func(events.Changed)) func() { return on(s, fn) }

func (s *Store) OnPropertyChanged(fn func(events.PropertyChanged)) func() { return on(s, fn) }

func (s *Store) OnHierarchyChanged(fn func(events.HierarchyChanged)) func() { return on(s, fn) }

func (s *Store) OnLifecycle(fn func(events.Lifecycle)) func() { return on(s, fn) }

func (s *Store) OnComponentChanged(fn func(events.ComponentChanged)) func() { return on(s, fn) }

func (s *Store) OnVisibilityChanged(fn func(events.VisibilityChanged)) func() { return on(s, fn) }

func (s *Store) OnFocusRequested(fn func(events.FocusRequested)) func() { return on(s, fn) }

func (s *Store) OnSelectionChanged(fn func(events.SelectionChanged)) func() { return on(s, fn) }

func on[T events.Payload](s *Store, fn func(T)) func() {
	sub, err := events.Subscribe(s.bus, fn)
	if err != nil {
		s.logger.Error("subscribe", log.Error(err))
		return func() {}
	}
	return func() { _ = sub.Cancel() }
}
