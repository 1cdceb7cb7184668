package transit

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"metroroute.org/internal/logging"
)

const watchDebounce = 500 * time.Millisecond

// startWatcher watches the directories of the local sources so editors that replace
// files by rename still trigger a reload.
func (manager *Manager) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range manager.config.localPaths() {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	manager.watcher = watcher
	manager.wg.Add(1)
	go manager.watchLoop(files)
	return nil
}

// watchLoop debounces change events and runs the reload itself, so Shutdown
// waits for a reload in progress before the database is closed.
func (manager *Manager) watchLoop(files map[string]bool) {
	defer manager.wg.Done()

	logger := slog.Default().With(slog.String("component", "transit_watcher"))

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-manager.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !files[abs] {
				continue
			}
			logger.Info("network file changed", slog.String("file", event.Name), slog.String("op", event.Op.String()))

			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(watchDebounce)
			pending = timer.C

		case <-pending:
			pending = nil
			manager.reloadChangedFiles(logger)

		case err, ok := <-manager.watcher.Errors:
			if !ok {
				return
			}
			logging.LogError(logger, "Network file watcher error", err)

		case <-manager.shutdownChan:
			return
		}
	}
}

func (manager *Manager) reloadChangedFiles(logger *slog.Logger) {
	ctx, cancel := manager.backgroundContext(time.Minute)
	defer cancel()

	if manager.beforeFileReload != nil {
		manager.beforeFileReload(ctx)
	}
	if err := manager.ForceUpdate(ctx); err != nil {
		logging.LogError(logger, "Network reload after file change failed", err)
	}
}
