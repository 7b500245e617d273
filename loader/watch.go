package loader

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// Watch keeps the process alive after the first deployment and re-runs
// it whenever the bitstream file is rewritten. Build tools replace the
// file with a burst of writes, so events are debounced before a run is
// triggered. A failed run is logged and watching continues.
func (l *Loader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: toolchains usually replace
	// the bitstream via rename, which swaps the watched inode out.
	target := filepath.Clean(l.Config.Bitstream)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case ev := <-watcher.Events:
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(debounceDelay)
		case <-debounce.C:
			l.logger.Info("watch",
				zap.String("stat", "bitstream changed, reloading"),
				zap.String("file", target))
			if err := l.Run(); err != nil {
				l.logger.Error("watch", zap.String("stat", "redeploy failed"), zap.Error(err))
			}
		case err := <-watcher.Errors:
			l.logger.Warn("watch", zap.Error(err))
		}
	}
}
