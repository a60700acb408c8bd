package batch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/invoice-recon/constants"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // process files already present
	Debounce    time.Duration // coalesce rapid write/rename bursts
}

// Watch processes matching files as they appear or change under the roots
// and hands each result to handle. It returns when ctx is done.
func (r *Runner) Watch(ctx context.Context, cfg WatchConfig, handle func(FileResult)) error {
	if len(cfg.Roots) == 0 {
		return errors.New("no roots provided")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	var initial []string
	for _, root := range cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if r.skipHidden && path != root && isHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && r.allowed(path) {
				initial = append(initial, path)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	r.logger.Info("batch.watch.start", "roots", cfg.Roots, "initial", len(initial))

	for _, p := range initial {
		if ctx.Err() != nil {
			return nil
		}
		handle(r.processFile(ctx, p))
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	pending := map[string]struct{}{}
	flush := func() {
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		clear(pending)
		sort.Strings(paths)
		for _, p := range paths {
			if fi, err := os.Stat(p); err != nil || fi.IsDir() {
				r.logger.Debug("batch.watch.gone", "path", p)
				continue
			}
			handle(r.processFile(ctx, p))
		}
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("batch.watch.stop")
			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if e.Has(fsnotify.Create) {
				if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
					if !(r.skipHidden && isHidden(e.Name)) {
						if err := w.Add(e.Name); err != nil {
							r.logger.Warn("batch.watch.add_failed", "path", e.Name, "err", err)
						}
					}
					continue
				}
			}
			if !r.allowed(e.Name) || (r.skipHidden && isHidden(e.Name)) {
				continue
			}
			// Rename names the old path; the new name arrives as its own Create.
			if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) {
				continue
			}
			pending[e.Name] = struct{}{}
			if cfg.Debounce <= 0 {
				flush()
				continue
			}
			timer.Reset(cfg.Debounce)
		case <-timer.C:
			flush()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("batch.watch.error", "err", err)
		}
	}
}

func (r *Runner) allowed(path string) bool {
	_, ok := r.exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}
