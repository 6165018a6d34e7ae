package filesystem

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dreschagin/motion-camera/internal/application/dto"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

const (
	imageExtension    = ".jpg"
	eventBufferLength = 64
)

// CaptureWatcher следит за каталогом съемки и выдает события о новых и удаленных снимках.
// Временные файлы, превью и файлы не .jpg пропускаются.
type CaptureWatcher struct {
	dir     string
	ignore  *regexp.Regexp
	watcher *fsnotify.Watcher
	events  chan dto.CaptureEvent
	logger  *logger.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewCaptureWatcher начинает наблюдение за dir. Пустой ignorePattern ничего не исключает.
func NewCaptureWatcher(dir, ignorePattern string, log *logger.Logger) (*CaptureWatcher, error) {
	var ignore *regexp.Regexp
	if ignorePattern != "" {
		re, err := regexp.Compile(ignorePattern)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", ignorePattern, err)
		}
		ignore = re
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &CaptureWatcher{
		dir:     dir,
		ignore:  ignore,
		watcher: watcher,
		events:  make(chan dto.CaptureEvent, eventBufferLength),
		logger:  log,
		done:    make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	log.Info("Watching capture directory", "dir", dir, "ignore", ignorePattern)
	return w, nil
}

// Events канал событий, закрывается после Close
func (w *CaptureWatcher) Events() <-chan dto.CaptureEvent {
	return w.events
}

func (w *CaptureWatcher) run() {
	defer w.wg.Done()
	defer close(w.events)

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.dispatch(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Capture watcher error", err, "dir", w.dir)
		}
	}
}

func (w *CaptureWatcher) dispatch(event fsnotify.Event) {
	if !w.accepts(event.Name) {
		return
	}

	var op dto.CaptureOp
	switch {
	case event.Has(fsnotify.Create):
		op = dto.CaptureCreated
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = dto.CaptureRemoved
	default:
		return
	}

	select {
	case w.events <- dto.CaptureEvent{Op: op, Path: event.Name}:
	case <-w.done:
	}
}

func (w *CaptureWatcher) accepts(path string) bool {
	name := filepath.Base(path)
	if w.ignore != nil && w.ignore.MatchString(name) {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), imageExtension)
}

// Close останавливает наблюдение
func (w *CaptureWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
