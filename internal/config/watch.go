package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the file at path whenever it is written or recreated and
// passes the result to onChange. Load failures go to onError and leave the
// previous configuration in place. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file so that editors
// which replace the file on save are still observed.
func Watch(ctx context.Context, path string, onChange func(Config), onError func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	report := func(err error) {
		if onError != nil && err != nil {
			onError(err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(abs)
			if err != nil {
				report(err)
				continue
			}
			if onChange != nil {
				onChange(cfg)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			report(err)
		}
	}
}
