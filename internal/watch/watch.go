// Package watch reruns a build when the videos in a folder change.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/autocut/internal/logging"
	"github.com/kikiluvv/autocut/pkg/util"
)

// Watcher calls onChange once things settle after videos directly inside
// a folder are created, written, removed or renamed. Subfolders are not
// watched, so build outputs do not trigger rebuilds. Calls never overlap.
type Watcher struct {
	folder   string
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	debounce time.Duration
	onChange func()

	timerMu sync.Mutex
	timer   *time.Timer
	trigger chan struct{}

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New starts watching folder.
func New(folder string, debounce time.Duration, logger zerolog.Logger, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(folder); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		folder:   folder,
		watcher:  fw,
		logger:   logging.WithComponent(logger, "watch").With().Str("folder", folder).Logger(),
		debounce: debounce,
		onChange: onChange,
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	w.wg.Add(2)
	go w.run()
	go w.dispatch()

	return w, nil
}

// Close stops watching and waits for a running callback to return.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)

		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.timerMu.Unlock()

		w.closeErr = w.watcher.Close()
		w.wg.Wait()
	})
	return w.closeErr
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watcher error")
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) dispatch() {
	defer w.wg.Done()

	for {
		select {
		case <-w.trigger:
			w.onChange()
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !util.IsVideoFile(event.Name) {
		return
	}

	w.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("change detected")
	w.schedule()
}

func (w *Watcher) schedule() {
	select {
	case <-w.done:
		return
	default:
	}

	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.trigger <- struct{}{}:
		default:
		}

		w.timerMu.Lock()
		if w.timer == timer {
			w.timer = nil
		}
		w.timerMu.Unlock()
	})
	w.timer = timer
}

// Run calls build once, then again after every settled change, until ctx
// is cancelled. Build errors are logged and do not stop the loop.
func Run(ctx context.Context, folder string, debounce time.Duration, logger zerolog.Logger, build func(context.Context) error) error {
	rebuild := func() {
		if err := build(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Str("folder", folder).Msg("build failed")
		}
	}

	rebuild()

	w, err := New(folder, debounce, logger, rebuild)
	if err != nil {
		return err
	}
	defer w.Close()

	logger.Info().Str("folder", folder).Dur("debounce", debounce).Msg("watching for changes")
	<-ctx.Done()
	return nil
}
