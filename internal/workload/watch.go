package workload

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch hot-reloads the workload file: whenever it is written, specs
// appended since the last load are spawned. Existing specs are never
// re-run. Watch blocks until the context is canceled or the watcher
// fails.
func (r *Runner) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory rather than the file: editors that replace the
	// file on save would otherwise detach the watch.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != abs {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if err := r.reload(path); err != nil {
				r.log.WithError(err).Warn("workload reload failed")
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.WithError(err).Warn("workload watcher error")
		}
	}
}

// reload re-reads the file and spawns only the specs past the ones
// already seen. The mark advances per spawned spec, not up front, so a
// spec whose spawn failed is retried by the next reload instead of
// skipped forever.
func (r *Runner) reload(path string) error {
	f, err := Load(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	known := r.loaded
	r.mu.Unlock()

	if len(f.Tasks) <= known {
		return nil
	}

	r.log.WithFields(logrus.Fields{
		"file":  path,
		"added": len(f.Tasks) - known,
	}).Info("workload file changed")

	for _, spec := range f.Tasks[known:] {
		if _, err := r.Spawn(spec); err != nil {
			return err
		}
		r.mu.Lock()
		r.loaded++
		r.mu.Unlock()
	}
	return nil
}
