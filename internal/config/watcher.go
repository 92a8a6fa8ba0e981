package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/artcraftzone/hierlog/pkg/logger"
)

// Applier receives configuration transitions. *logger.Controller
// implements it.
type Applier interface {
	Apply(prev, next logger.Config)
}

// Watcher turns edits of the configuration file into Apply calls.
type Watcher struct {
	v       *viper.Viper
	applier Applier

	mu      sync.Mutex
	current logger.Config
	onError func(error)
}

// NewWatcher creates a watcher whose baseline is current
func NewWatcher(v *viper.Viper, applier Applier, current logger.Config, onError func(error)) *Watcher {
	if onError == nil {
		onError = func(error) {}
	}
	return &Watcher{v: v, applier: applier, current: current, onError: onError}
}

// Start watches the file viper read. It has no effect when no file was read.
func (w *Watcher) Start() {
	if w.v.ConfigFileUsed() == "" {
		return
	}
	w.v.OnConfigChange(w.handle)
	w.v.WatchConfig()
}

func (w *Watcher) handle(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	if err := w.Reload(); err != nil {
		w.onError(errors.Wrapf(err, "reload %s", e.Name))
	}
}

// Reload decodes the values viper currently holds and applies the
// difference to the previous configuration. An invalid configuration is
// rejected and the previous one stays in effect.
func (w *Watcher) Reload() error {
	cfg, err := Load(w.v)
	if err != nil {
		return err
	}
	next, err := cfg.ToLogger()
	if err != nil {
		return err
	}

	w.mu.Lock()
	prev := w.current
	w.current = next
	w.mu.Unlock()

	w.applier.Apply(prev, next)
	return nil
}

// Current returns the configuration last applied
func (w *Watcher) Current() logger.Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}
