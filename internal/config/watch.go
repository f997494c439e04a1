package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// WatchPolicies reloads the policy file whenever it is written and passes
// the new set to onChange. A file that fails to load is logged and the
// previous policies stay active. It runs until ctx is cancelled.
func WatchPolicies(ctx context.Context, path string, log logrus.FieldLogger, onChange func(*Policies)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	log.WithField("path", path).Info("watching policy file")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// editors often save by rename, which shows up as Create
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			policies, err := LoadPolicies(path)
			if err != nil {
				log.WithField("path", path).WithError(err).Error("policy reload failed, keeping previous policies")
				continue
			}

			log.WithField("path", path).Info("policies reloaded")
			onChange(policies)

			// the inode may have changed on atomic save
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("policy watcher error")
		}
	}
}
