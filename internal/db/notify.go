package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Notifier publishes journal events over PostgreSQL NOTIFY so dashboards
// can refresh without polling.
type Notifier struct {
	DB      *sql.DB
	DSN     string
	Channel string
}

// NewNotifier constructs a new Notifier.  The channel should match the
// POSTGRES_NOTIFY_CHANNEL environment variable; dsn is used to open the
// dedicated LISTEN connection.
func NewNotifier(db *sql.DB, dsn, channel string) *Notifier {
	return &Notifier{DB: db, DSN: dsn, Channel: channel}
}

// Notify sends the record ID as payload on the configured channel.
func (n *Notifier) Notify(ctx context.Context, recordID string) error {
	// NOTIFY does not accept bind parameters; pg_notify does.
	_, err := n.DB.ExecContext(ctx, "SELECT pg_notify($1, $2)", n.Channel, recordID)
	if err != nil {
		return fmt.Errorf("notify %s: %w", pq.QuoteIdentifier(n.Channel), err)
	}
	return nil
}

// Listen subscribes to the channel on a dedicated connection and yields
// record IDs until ctx is cancelled.
func (n *Notifier) Listen(ctx context.Context) (<-chan string, error) {
	listener := pq.NewListener(n.DSN, minReconnect, maxReconnect, nil)
	if err := listener.Listen(n.Channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", pq.QuoteIdentifier(n.Channel), err)
	}
	ch := make(chan string)
	go func() {
		defer func() {
			_ = listener.Close()
			close(ch)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case note := <-listener.Notify:
				// nil after a reconnect
				if note == nil {
					continue
				}
				select {
				case ch <- note.Extra:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
