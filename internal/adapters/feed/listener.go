// Package feed delivers row-change events from Postgres to the sync
// coordinator. A trigger on each watched table emits a JSON payload on
// the splitty_changes channel; this listener holds a dedicated
// connection, decodes payloads and fans them out to table subscribers.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
)

// Channel is the pg_notify channel the table triggers publish on.
const Channel = "splitty_changes"

// reconnectDelay is the initial backoff after a lost connection. It
// doubles up to reconnectDelayMax.
const (
	reconnectDelay    = time.Second
	reconnectDelayMax = 30 * time.Second
)

type Listener struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string][]*subscription
}

type subscription struct {
	handler func(domain.ChangeEvent)
}

var _ portssvc.ChangeFeed = (*Listener)(nil)

func NewListener(pool *pgxpool.Pool, logger *slog.Logger) *Listener {
	return &Listener{
		pool:     pool,
		logger:   logger.With(slog.String("component", "feed")),
		handlers: make(map[string][]*subscription),
	}
}

// Subscribe registers a handler for one table's events. The returned
// func removes the subscription.
func (l *Listener) Subscribe(table string, handler func(domain.ChangeEvent)) func() {
	sub := &subscription{handler: handler}

	l.mu.Lock()
	l.handlers[table] = append(l.handlers[table], sub)
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		subs := l.handlers[table]
		for i, s := range subs {
			if s == sub {
				l.handlers[table] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Run services the listening connection until ctx is cancelled,
// reconnecting with backoff when the connection drops. Notifications
// sent while disconnected are lost; the coordinator's refetch-on-event
// model tolerates that because the next event resyncs everything.
func (l *Listener) Run(ctx context.Context) error {
	delay := reconnectDelay
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("Feed connection lost, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > reconnectDelayMax {
			delay = reconnectDelayMax
		}
	}
}

// listen holds one dedicated connection and blocks on notifications
// until the connection fails or ctx is cancelled.
func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return err
	}
	l.logger.Info("Listening for change events", slog.String("channel", Channel))

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.dispatch(notification.Payload)
	}
}

func (l *Listener) dispatch(payload string) {
	var event domain.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		l.logger.Warn("Dropping malformed feed payload", slog.String("error", err.Error()))
		return
	}

	l.mu.RLock()
	subs := append([]*subscription(nil), l.handlers[event.Table]...)
	l.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(event)
	}
}
