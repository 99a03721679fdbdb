package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/playschool-admin/internal/models"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
)

type memoryCollection struct {
	order []string
	docs  map[string]map[string]interface{}
}

// MemoryDocumentStore is an in-process document store with live snapshots.
// Subscribers are notified synchronously after each mutation, outside the
// data lock, and must not mutate the store from their callbacks.
type MemoryDocumentStore struct {
	deliverMu   sync.Mutex
	mu          sync.Mutex
	collections map[string]*memoryCollection
	subs        map[string]map[int]feedSubscriber
	nextSub     int
}

// NewMemoryDocumentStore constructs an empty store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		collections: make(map[string]*memoryCollection),
		subs:        make(map[string]map[int]feedSubscriber),
	}
}

// Subscribe registers callbacks and delivers the current contents immediately.
// The initial snapshot is ordered with publish deliveries, so a subscriber never
// sees an older snapshot after a newer one.
func (s *MemoryDocumentStore) Subscribe(_ context.Context, collection string, onChange func([]models.Document), onError func(error)) (func(), error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	s.deliverMu.Lock()
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.subs[collection] == nil {
		s.subs[collection] = make(map[int]feedSubscriber)
	}
	s.subs[collection][id] = feedSubscriber{onChange: onChange, onError: onError}
	docs, err := s.snapshotLocked(collection)
	s.mu.Unlock()

	if err != nil {
		if onError != nil {
			onError(err)
		}
	} else {
		onChange(docs)
	}
	s.deliverMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[collection], id)
			s.mu.Unlock()
		})
	}, nil
}

// List returns a collection snapshot.
func (s *MemoryDocumentStore) List(_ context.Context, collection string) ([]models.Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(collection)
}

// Create inserts a document with a generated identifier.
func (s *MemoryDocumentStore) Create(_ context.Context, collection string, fields models.Fields) (string, error) {
	if err := checkCollection(collection); err != nil {
		return "", err
	}
	data, err := cloneFields(fields.Without("id"))
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	coll := s.collectionLocked(collection)
	coll.order = append(coll.order, id)
	coll.docs[id] = data
	s.mu.Unlock()

	s.publish(collection)
	return id, nil
}

// Patch merges fields into an existing document.
func (s *MemoryDocumentStore) Patch(_ context.Context, collection, id string, fields models.Fields) error {
	if err := checkDocumentRef(collection, id); err != nil {
		return err
	}
	patch, err := cloneFields(fields.Without("id"))
	if err != nil {
		return err
	}

	s.mu.Lock()
	doc, ok := s.collectionLocked(collection).docs[id]
	if !ok {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s document %s not found", collection, id))
	}
	for k, v := range patch {
		doc[k] = v
	}
	s.mu.Unlock()

	s.publish(collection)
	return nil
}

// Delete removes a document.
func (s *MemoryDocumentStore) Delete(_ context.Context, collection, id string) error {
	if err := checkDocumentRef(collection, id); err != nil {
		return err
	}

	s.mu.Lock()
	coll := s.collectionLocked(collection)
	if _, ok := coll.docs[id]; !ok {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s document %s not found", collection, id))
	}
	delete(coll.docs, id)
	for i, existing := range coll.order {
		if existing == id {
			coll.order = append(coll.order[:i], coll.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.publish(collection)
	return nil
}

func (s *MemoryDocumentStore) publish(collection string) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	docs, err := s.snapshotLocked(collection)
	subs := make([]feedSubscriber, 0, len(s.subs[collection]))
	for _, sub := range s.subs[collection] {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if err != nil {
			if sub.onError != nil {
				sub.onError(err)
			}
			continue
		}
		sub.onChange(docs)
	}
}

func (s *MemoryDocumentStore) collectionLocked(collection string) *memoryCollection {
	coll, ok := s.collections[collection]
	if !ok {
		coll = &memoryCollection{docs: make(map[string]map[string]interface{})}
		s.collections[collection] = coll
	}
	return coll
}

func (s *MemoryDocumentStore) snapshotLocked(collection string) ([]models.Document, error) {
	coll := s.collectionLocked(collection)
	docs := make([]models.Document, 0, len(coll.order))
	for _, id := range coll.order {
		raw, err := json.Marshal(coll.docs[id])
		if err != nil {
			return nil, fmt.Errorf("encode %s/%s: %w", collection, id, err)
		}
		docs = append(docs, models.Document{ID: id, Data: raw})
	}
	return docs, nil
}

// cloneFields round-trips through JSON so stored values never alias caller data.
func cloneFields(fields models.Fields) (map[string]interface{}, error) {
	payload, err := encodeFields(fields)
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{})
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return out, nil
}
