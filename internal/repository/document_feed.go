package repository

import (
	"context"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/playschool-admin/internal/models"
)

// DocumentChangesChannel is the Postgres NOTIFY channel fired by the documents trigger.
const DocumentChangesChannel = "document_changes"

const listenerPingInterval = 90 * time.Second

// notificationSource is the subset of *pq.Listener the feed depends on.
type notificationSource interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

type documentLister interface {
	List(ctx context.Context, collection string) ([]models.Document, error)
}

type feedSubscriber struct {
	onChange func([]models.Document)
	onError  func(error)
}

// DocumentFeed turns change notifications into full collection snapshots.
// Every notification names a collection; a nil notification means the
// listener reconnected and all watched collections are reloaded.
type DocumentFeed struct {
	lister documentLister
	source notificationSource
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[string]map[int]feedSubscriber
	nextID int
}

// NewDocumentFeed constructs a feed. Call Run to start dispatching.
func NewDocumentFeed(lister documentLister, source notificationSource, logger *zap.Logger) *DocumentFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentFeed{
		lister: lister,
		source: source,
		logger: logger,
		subs:   make(map[string]map[int]feedSubscriber),
	}
}

// NewListener dials a lib/pq listener that logs connection state changes.
func NewListener(dsn string, minReconnect, maxReconnect time.Duration, logger *zap.Logger) *pq.Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return pq.NewListener(dsn, minReconnect, maxReconnect, func(event pq.ListenerEventType, err error) {
		switch event {
		case pq.ListenerEventConnected:
			logger.Info("document listener connected")
		case pq.ListenerEventDisconnected:
			logger.Warn("document listener disconnected", zap.Error(err))
		case pq.ListenerEventReconnected:
			logger.Info("document listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Warn("document listener connection attempt failed", zap.Error(err))
		}
	})
}

// Start subscribes the listener to the document channel.
func (f *DocumentFeed) Start() error {
	return f.source.Listen(DocumentChangesChannel)
}

// Subscribe registers callbacks for a collection and delivers its current
// contents. A failed initial load is reported through onError; the
// subscription stays registered and recovers on the next change.
func (f *DocumentFeed) Subscribe(ctx context.Context, collection string, onChange func([]models.Document), onError func(error)) (func(), error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	if f.subs[collection] == nil {
		f.subs[collection] = make(map[int]feedSubscriber)
	}
	f.subs[collection][id] = feedSubscriber{onChange: onChange, onError: onError}
	f.mu.Unlock()

	docs, err := f.lister.List(ctx, collection)
	if err != nil {
		if onError != nil {
			onError(err)
		}
	} else {
		onChange(docs)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[collection], id)
			f.mu.Unlock()
		})
	}, nil
}

// Run dispatches notifications until ctx is cancelled.
func (f *DocumentFeed) Run(ctx context.Context) {
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	notifications := f.source.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			if n == nil {
				f.refreshAll(ctx)
				continue
			}
			f.refresh(ctx, n.Extra)
		case <-ticker.C:
			if err := f.source.Ping(); err != nil {
				f.logger.Warn("document listener ping failed", zap.Error(err))
			}
		}
	}
}

// Close stops the underlying listener.
func (f *DocumentFeed) Close() error {
	return f.source.Close()
}

func (f *DocumentFeed) refreshAll(ctx context.Context) {
	f.mu.Lock()
	collections := make([]string, 0, len(f.subs))
	for collection, subs := range f.subs {
		if len(subs) > 0 {
			collections = append(collections, collection)
		}
	}
	f.mu.Unlock()

	for _, collection := range collections {
		f.refresh(ctx, collection)
	}
}

func (f *DocumentFeed) refresh(ctx context.Context, collection string) {
	subs := f.subscribers(collection)
	if len(subs) == 0 {
		return
	}

	docs, err := f.lister.List(ctx, collection)
	if err != nil {
		f.logger.Error("reload collection failed", zap.String("collection", collection), zap.Error(err))
		for _, sub := range subs {
			if sub.onError != nil {
				sub.onError(err)
			}
		}
		return
	}
	for _, sub := range subs {
		sub.onChange(docs)
	}
}

func (f *DocumentFeed) subscribers(collection string) []feedSubscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]feedSubscriber, 0, len(f.subs[collection]))
	for _, sub := range f.subs[collection] {
		out = append(out, sub)
	}
	return out
}

// PostgresDocumentStore combines the documents table with its change feed.
type PostgresDocumentStore struct {
	*DocumentRepository
	feed *DocumentFeed
}

// NewPostgresDocumentStore constructs a PostgresDocumentStore.
func NewPostgresDocumentStore(repo *DocumentRepository, feed *DocumentFeed) *PostgresDocumentStore {
	return &PostgresDocumentStore{DocumentRepository: repo, feed: feed}
}

// Subscribe delegates to the change feed.
func (s *PostgresDocumentStore) Subscribe(ctx context.Context, collection string, onChange func([]models.Document), onError func(error)) (func(), error) {
	return s.feed.Subscribe(ctx, collection, onChange, onError)
}
