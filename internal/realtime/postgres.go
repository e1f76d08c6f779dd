package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotifyChannel is the PostgreSQL channel shared by every server instance
const NotifyChannel = "fellowship_events"

// maxPayload is just under PostgreSQL's NOTIFY payload limit
const maxPayload = 7900

// Events too large for NOTIFY are parked in this table and the notification
// carries the row id instead. Rows are pruned after spillRetention.
const (
	spillTable     = "realtime_spill"
	spillRetention = 10 * time.Minute
)

type envelope struct {
	Topic string `json:"topic,omitempty"`
	Event *Event `json:"event,omitempty"`
	Ref   string `json:"ref,omitempty"`
}

// encodeNotification builds the NOTIFY payload for an event, handing oversized
// envelopes to spill and notifying with the returned reference.
func encodeNotification(topic string, event Event, spill func(payload []byte) (string, error)) (string, error) {
	payload, err := json.Marshal(envelope{Topic: topic, Event: &event})
	if err != nil {
		return "", err
	}
	if len(payload) <= maxPayload {
		return string(payload), nil
	}
	ref, err := spill(payload)
	if err != nil {
		return "", fmt.Errorf("failed to spill %d byte event on %s: %w", len(payload), topic, err)
	}
	payload, err = json.Marshal(envelope{Ref: ref})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// decodeNotification reverses encodeNotification, loading spilled envelopes by reference
func decodeNotification(payload string, load func(ref string) ([]byte, error)) (envelope, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return envelope{}, err
	}
	if env.Ref != "" {
		raw, err := load(env.Ref)
		if err != nil {
			return envelope{}, fmt.Errorf("failed to load spilled event %s: %w", env.Ref, err)
		}
		env = envelope{}
		if err := json.Unmarshal(raw, &env); err != nil {
			return envelope{}, err
		}
	}
	if env.Event == nil || env.Topic == "" {
		return envelope{}, fmt.Errorf("notification without topic or event")
	}
	return env, nil
}

// PostgresBroker sends events through pg_notify so that subscribers on every
// instance receive them. Delivery to local subscribers happens in the LISTEN loop.
type PostgresBroker struct {
	hub    *Hub
	pool   *pgxpool.Pool
	url    string
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Broker = (*PostgresBroker)(nil)

// NewPostgresBroker connects to databaseURL and starts listening
func NewPostgresBroker(ctx context.Context, databaseURL string) (*PostgresBroker, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create notify pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+spillTable+` (
		id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create %s table: %w", spillTable, err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	b := &PostgresBroker{
		hub:    NewHub(),
		pool:   pool,
		url:    databaseURL,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go b.listen(listenCtx)

	log.Printf("Realtime broker: postgres LISTEN %s", NotifyChannel)
	return b, nil
}

// Publish sends the event through pg_notify
func (b *PostgresBroker) Publish(ctx context.Context, topic string, event Event) error {
	payload, err := encodeNotification(topic, event, func(raw []byte) (string, error) {
		return b.spill(ctx, raw)
	})
	if err != nil {
		return err
	}
	if _, err := b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", NotifyChannel, payload); err != nil {
		return fmt.Errorf("failed to notify: %w", err)
	}
	return nil
}

func (b *PostgresBroker) spill(ctx context.Context, payload []byte) (string, error) {
	if _, err := b.pool.Exec(ctx, "DELETE FROM "+spillTable+" WHERE created_at < $1", time.Now().Add(-spillRetention)); err != nil {
		log.Printf("Realtime: failed to prune %s: %v", spillTable, err)
	}
	ref := uuid.NewString()
	if _, err := b.pool.Exec(ctx, "INSERT INTO "+spillTable+" (id, payload) VALUES ($1, $2)", ref, string(payload)); err != nil {
		return "", err
	}
	return ref, nil
}

func (b *PostgresBroker) load(ctx context.Context, ref string) ([]byte, error) {
	var payload string
	if err := b.pool.QueryRow(ctx, "SELECT payload FROM "+spillTable+" WHERE id = $1", ref).Scan(&payload); err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

func (b *PostgresBroker) Subscribe(topic string) (<-chan Event, func()) {
	return b.hub.Subscribe(topic)
}

// Close stops the LISTEN loop and ends every subscription
func (b *PostgresBroker) Close() error {
	b.cancel()
	<-b.done
	b.pool.Close()
	return b.hub.Close()
}

// listen keeps a dedicated connection on LISTEN, reconnecting with backoff
func (b *PostgresBroker) listen(ctx context.Context) {
	defer close(b.done)
	backoff := time.Second
	for {
		err := b.listenOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("Realtime listener stopped: %v (retrying in %s)", err, backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (b *PostgresBroker) listenOnce(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, b.url)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		return err
	}

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		env, err := decodeNotification(notification.Payload, func(ref string) ([]byte, error) {
			return b.load(ctx, ref)
		})
		if err != nil {
			log.Printf("Realtime: dropping notification: %v", err)
			continue
		}
		b.hub.deliver(env.Topic, *env.Event)
	}
}
