package store

import "github.com/zeusync/scenestore/internal/core/scene"

const DefaultSceneName = "Untitled"

type options struct {
	historyDepth int
	template     scene.Template
	sceneName    string
}

type Option func(*options)

// WithHistoryDepth caps the undo stack; 0 keeps every step.
func WithHistoryDepth(n int) Option {
	return func(o *options) { o.historyDepth = n }
}

// WithTemplate selects how NewScene populates a fresh scene.
func WithTemplate(tpl scene.Template) Option {
	return func(o *options) { o.template = tpl }
}

// WithSceneName sets the name used when NewScene is called without one.
func WithSceneName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.sceneName = name
		}
	}
}

func defaultOptions() options {
	return options{template: scene.TemplateDefault, sceneName: DefaultSceneName}
}
