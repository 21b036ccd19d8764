// Package store is the editor's single source of truth. Every scene edit goes
// through a history command; effects of each command are turned into
// notifications on the event bus after selection and metadata are updated.
//
// A Store is not safe for concurrent use. Callers on several goroutines must
// serialize access themselves.
package store

import (
	"errors"

	"github.com/zeusync/scenestore/internal/core/events"
	"github.com/zeusync/scenestore/internal/core/events/bus"
	"github.com/zeusync/scenestore/internal/core/history"
	"github.com/zeusync/scenestore/internal/core/observability/log"
	"github.com/zeusync/scenestore/internal/core/scene"
	"github.com/zeusync/scenestore/internal/core/selection"
)

type AssetRef = events.AssetRef

// Metadata is scene-level bookkeeping.
type Metadata struct {
	FilePath      string    `json:"filePath"`
	IsDirty       bool      `json:"isDirty"`
	SceneVersion  uint64    `json:"sceneVersion"`
	SelectedAsset *AssetRef `json:"selectedAsset,omitempty"`
}

type Store struct {
	logger log.Log
	bus    bus.EventBus
	opts   options

	graph     *scene.Graph
	history   *history.History
	selection selection.Set
	meta      Metadata

	// events published by listeners while a batch is being delivered
	pending    []bus.Event
	publishing bool
}

// New creates a store holding a fresh scene built from the configured
// template. Nothing is published during construction.
func New(logger log.Log, b bus.EventBus, opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if b == nil {
		b = bus.New()
	}
	g := scene.NewFromTemplate(o.sceneName, o.template)
	return &Store{
		logger:  logger.With(log.String("component", "store")),
		bus:     b,
		opts:    o,
		graph:   g,
		history: history.New(g, o.historyDepth),
	}
}

// Bus returns the bus notifications are published on.
func (s *Store) Bus() bus.EventBus { return s.bus }

// NewScene replaces the scene with a fresh one from the template and resets
// history, selection and metadata. An empty name uses the configured default.
func (s *Store) NewScene(name string) {
	if name == "" {
		name = s.opts.sceneName
	}
	s.replace(scene.NewFromTemplate(name, s.opts.template), "")
	s.logger.Info("new scene", log.String("name", name))
}

// LoadScene replaces the scene with data. On error the current scene is left
// untouched. Loading is not undoable.
func (s *Store) LoadScene(data scene.Scene, filePath string) error {
	g, err := scene.FromScene(data)
	if err != nil {
		return err
	}
	s.replace(g, filePath)
	s.logger.Info("scene loaded",
		log.String("name", data.Name),
		log.String("path", filePath),
		log.Int("entities", g.Len()))
	return nil
}

func (s *Store) replace(g *scene.Graph, filePath string) {
	hadSelection := s.selection.Len() > 0 || s.meta.SelectedAsset != nil
	s.graph = g
	s.history.Reset(g)
	s.selection.Clear()
	s.meta = Metadata{FilePath: filePath, SceneVersion: s.meta.SceneVersion + 1}

	var evs []bus.Event
	if hadSelection {
		evs = append(evs, s.selectionEvent())
	}
	s.publish(append(evs, s.changedEvent())...)
}

// MarkSaved clears the dirty flag. A non-empty path replaces the stored one.
func (s *Store) MarkSaved(filePath string) {
	if filePath != "" {
		s.meta.FilePath = filePath
	}
	s.meta.IsDirty = false
	s.publish(s.changedEvent())
}

// Snapshot returns a deep copy of the scene.
func (s *Store) Snapshot() scene.Scene { return s.graph.Snapshot() }

func (s *Store) Metadata() Metadata {
	m := s.meta
	if m.SelectedAsset != nil {
		a := *m.SelectedAsset
		m.SelectedAsset = &a
	}
	return m
}

// Fingerprint hashes the current scene content.
func (s *Store) Fingerprint() (uint64, error) {
	return scene.Fingerprint(s.graph.Snapshot())
}

// execute runs cmd through history and publishes its effects.
func (s *Store) execute(cmd history.Command) error {
	effects, err := s.history.Execute(cmd)
	if err != nil {
		s.logger.Debug("command rejected", log.String("command", cmd.Label()), log.Error(err))
		return err
	}
	s.logger.Debug("command executed", log.String("command", cmd.Label()), log.Int("effects", len(effects)))
	s.commit(effects)
	return nil
}

func (s *Store) Undo() bool {
	label := s.history.UndoLabel()
	effects, err := s.history.Undo()
	return s.traverse("undo", label, effects, err)
}

func (s *Store) Redo() bool {
	label := s.history.RedoLabel()
	effects, err := s.history.Redo()
	return s.traverse("redo", label, effects, err)
}

func (s *Store) traverse(op, label string, effects history.Effects, err error) bool {
	switch {
	case errors.Is(err, history.ErrNothingToUndo), errors.Is(err, history.ErrNothingToRedo):
		return false
	case err != nil:
		// the graph may be partially reverted; let listeners resync
		s.logger.Error(op+" failed", log.String("command", label), log.Error(err))
		s.selection.Retain(s.graph.Exists)
		s.bump()
		s.publish(s.selectionEvent(), s.changedEvent())
		return false
	}
	s.logger.Debug(op, log.String("command", label))
	s.commit(effects)
	return true
}

func (s *Store) CanUndo() bool     { return s.history.CanUndo() }
func (s *Store) CanRedo() bool     { return s.history.CanRedo() }
func (s *Store) UndoLabel() string { return s.history.UndoLabel() }
func (s *Store) RedoLabel() string { return s.history.RedoLabel() }

// HistoryDepth returns the sizes of the undo and redo stacks.
func (s *Store) HistoryDepth() (undo, redo int) { return s.history.Depth() }

// commit evicts deleted entities from the selection, bumps the version and
// then publishes one notification per effect followed by scene.changed.
func (s *Store) commit(effects history.Effects) {
	selChanged := false
	if gone := effects.Deleted(); len(gone) > 0 {
		selChanged = s.selection.Evict(gone...)
	}
	s.bump()

	evs := make([]bus.Event, 0, len(effects)+2)
	for _, eff := range effects {
		if ev := effectEvent(eff); ev != nil {
			evs = append(evs, ev)
		}
	}
	if selChanged {
		evs = append(evs, s.selectionEvent())
	}
	s.publish(append(evs, s.changedEvent())...)
}

func effectEvent(eff history.Effect) bus.Event {
	switch eff.Kind {
	case history.EffectCreated:
		return events.New(events.Lifecycle{Entity: eff.Entity, Type: events.Created})
	case history.EffectDeleted:
		return events.New(events.Lifecycle{Entity: eff.Entity, Type: events.Deleted})
	case history.EffectRenamed:
		return events.New(events.PropertyChanged{Entity: eff.Entity, Property: "name"})
	case history.EffectReparented:
		return events.New(events.HierarchyChanged{Entity: eff.Entity, NewParent: eff.Parent})
	case history.EffectComponentAdded:
		return events.New(events.ComponentChanged{Entity: eff.Entity, Component: eff.Component, Action: events.Added})
	case history.EffectComponentRemoved:
		return events.New(events.ComponentChanged{Entity: eff.Entity, Component: eff.Component, Action: events.Removed})
	case history.EffectPropertyChanged:
		return events.New(events.PropertyChanged{Entity: eff.Entity, Component: eff.Component, Property: eff.Property})
	default:
		return nil
	}
}

func (s *Store) bump() {
	s.meta.SceneVersion++
	s.meta.IsDirty = true
}

func (s *Store) changedEvent() bus.Event {
	return events.New(events.Changed{Version: s.meta.SceneVersion})
}

func (s *Store) selectionEvent() bus.Event {
	p := events.SelectionChanged{IDs: s.selection.IDs()}
	if s.meta.SelectedAsset != nil {
		a := *s.meta.SelectedAsset
		p.Asset = &a
	}
	return events.New(p)
}

// publish delivers evs in order. A listener that changes the store while a
// batch is being delivered has its notifications queued behind that batch,
// so the last scene.changed seen always carries the current version.
// Listener errors are logged and never undo the change that caused them.
func (s *Store) publish(evs ...bus.Event) {
	s.pending = append(s.pending, evs...)
	if s.publishing {
		return
	}
	s.publishing = true
	defer func() {
		s.publishing = false
		s.pending = nil
	}()

	for len(s.pending) > 0 {
		batch := s.pending
		s.pending = nil
		if err := s.bus.PublishBatch(batch...); err != nil {
			s.logger.Warn("listener failed", log.Error(err))
		}
	}
}
