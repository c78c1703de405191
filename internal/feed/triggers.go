package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/theirongolddev/kantong/internal/amqp"
	"github.com/theirongolddev/kantong/internal/collator"
	applog "github.com/theirongolddev/kantong/internal/log"
)

// Poll refreshes every stream on each tick until ctx is canceled.
func (f *Feed) Poll(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := f.Refresh(ctx); err != nil {
				return err
			}
		}
	}
}

// Watch refreshes every stream shortly after the database file (or its
// WAL/journal siblings) changes on disk. Bursts of writes within debounce
// collapse into one refresh.
func (f *Feed) Watch(ctx context.Context, dbPath string, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	base := filepath.Base(dbPath)
	f.logger.Info("watching database", applog.FieldOperation, applog.OpWatch, "path", dbPath)

	ticker := time.NewTicker(debounce)
	defer ticker.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if relevant(ev, base) {
				pending = true
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("watcher error", applog.FieldError, err)

		case <-ticker.C:
			if !pending {
				continue
			}
			pending = false
			if err := f.Refresh(ctx); err != nil {
				return err
			}
		}
	}
}

func relevant(ev fsnotify.Event, base string) bool {
	if !strings.HasPrefix(filepath.Base(ev.Name), base) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// Subscriber delivers change notices. *amqp.Client satisfies it.
type Subscriber interface {
	ConsumeChanges(ctx context.Context, user string, handler func(amqp.Change) error) error
}

// Listen refreshes exactly the stream named in each change notice.
func (f *Feed) Listen(ctx context.Context, sub Subscriber) error {
	return sub.ConsumeChanges(ctx, f.user, func(ch amqp.Change) error {
		s, ok := collator.ParseStream(ch.Stream)
		if !ok {
			return fmt.Errorf("unknown stream %q", ch.Stream)
		}
		return f.Refresh(ctx, s)
	})
}
