package config

import (
	"log/slog"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 300 * time.Millisecond

// Change describes a reload. The boolean fields flag sections that can be
// applied to a running server; Restart names sections whose new values only
// take effect after a restart.
type Change struct {
	Old, New *Config

	Match   bool
	Replies bool
	Filter  bool
	Log     bool
	Restart []string
}

// Live reports whether any hot-reloadable section changed.
func (c Change) Live() bool {
	return c.Match || c.Replies || c.Filter || c.Log
}

// Diff compares two configs section by section.
func Diff(old, cur *Config) Change {
	ch := Change{
		Old:     old,
		New:     cur,
		Match:   !reflect.DeepEqual(old.Match, cur.Match),
		Replies: old.Replies != cur.Replies,
		Filter:  old.Knowledge.Filter != cur.Knowledge.Filter,
		Log:     old.Log != cur.Log,
	}

	ok, nk := old.Knowledge, cur.Knowledge
	ok.Filter, nk.Filter = "", ""
	if ok != nk {
		ch.Restart = append(ch.Restart, "knowledge")
	}
	if !reflect.DeepEqual(old.Gateway, cur.Gateway) {
		ch.Restart = append(ch.Restart, "gateway")
	}
	if !reflect.DeepEqual(old.Channels, cur.Channels) {
		ch.Restart = append(ch.Restart, "channels")
	}
	if !reflect.DeepEqual(old.Telemetry, cur.Telemetry) {
		ch.Restart = append(ch.Restart, "telemetry")
	}
	if old.Tailscale != cur.Tailscale {
		ch.Restart = append(ch.Restart, "tailscale")
	}
	return ch
}

// Watcher reloads the config file when it changes on disk and hands the
// difference to registered handlers. Invalid files are logged and ignored.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	stopped sync.Once

	mu       sync.Mutex
	current  *Config
	handlers []func(Change)
}

// NewWatcher watches configPath. current is the config the process is
// running with.
func NewWatcher(configPath string, current *Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:    filepath.Clean(ExpandHome(configPath)),
		fsw:     fsw,
		done:    make(chan struct{}),
		current: current,
	}, nil
}

// OnChange registers fn. Handlers run on the watcher goroutine, only when
// a hot-reloadable section changed.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	w.handlers = append(w.handlers, fn)
	w.mu.Unlock()
}

// Start watches the parent directory so that editors and Save, which
// replace the file, are picked up.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.loop()
	slog.Info("config watcher started", "path", w.path)
	return nil
}

// Stop ends the watch and waits for a running reload to finish.
func (w *Watcher) Stop() {
	w.stopped.Do(func() {
		close(w.done)
		w.fsw.Close()
		w.wg.Wait()
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == w.path && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(reloadDebounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("config watcher error", "error", err)
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		slog.Error("config reload failed, keeping previous config", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	ch := Diff(w.current, cfg)
	w.current = cfg
	handlers := append([]func(Change){}, w.handlers...)
	w.mu.Unlock()

	if len(ch.Restart) > 0 {
		slog.Warn("config changed in sections that need a restart", "sections", ch.Restart)
	}
	if !ch.Live() {
		slog.Debug("config file changed, nothing to apply", "path", w.path)
		return
	}
	for _, h := range handlers {
		h(ch)
	}
	slog.Info("config reloaded", "match", ch.Match, "replies", ch.Replies, "filter", ch.Filter, "log", ch.Log)
}
