package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/playschool-admin/internal/dto"
	"github.com/noah-isme/playschool-admin/internal/models"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
)

const sessionFeed = "session"

// ErrAlreadyInitialized is returned by a second call to Initialize.
var ErrAlreadyInitialized = errors.New("app state already initialized")

type stateMetrics interface {
	ObserveMutation(collection, op string, err error)
	ObserveSnapshot(collection string, size int)
	ObserveFeedError(collection string)
}

// AppStateParams groups constructor dependencies.
type AppStateParams struct {
	Store     DocumentGateway
	Identity  IdentityGateway
	Allocator DisplayIDAllocator
	Metrics   stateMetrics
	Validator *validator.Validate
	Logger    *zap.Logger
}

// AppState is the single source of truth for the signed-in session and the
// four live collections. Local collections change only when the store
// delivers a snapshot; mutations go to the store and come back that way.
type AppState struct {
	store     DocumentGateway
	identity  IdentityGateway
	allocator DisplayIDAllocator
	metrics   stateMetrics
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.RWMutex
	session     *models.Session
	students    []models.Student
	staff       []models.StaffMember
	invoices    []models.Invoice
	expenses    []models.Expense
	pending     map[string]struct{}
	loaded      chan struct{}
	initialized bool
	closed      bool
	unsubs      []func()
	closeOnce   sync.Once
}

// NewAppState constructs an AppState. Call Initialize to start the feeds.
func NewAppState(params AppStateParams) *AppState {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	allocator := params.Allocator
	if allocator == nil {
		allocator = SnapshotAllocator{}
	}
	pending := map[string]struct{}{sessionFeed: {}}
	for _, collection := range models.Collections {
		pending[collection] = struct{}{}
	}
	return &AppState{
		store:     params.Store,
		identity:  params.Identity,
		allocator: allocator,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
		pending:   pending,
		loaded:    make(chan struct{}),
	}
}

// Initialize subscribes to the session feed and the four collections. The
// first event of each feed may arrive in any order; Loading reports true
// until all five have settled.
func (s *AppState) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.initialized = true
	s.mu.Unlock()

	unsubs := make([]func(), 0, len(models.Collections)+1)
	if s.identity != nil {
		unsubs = append(unsubs, s.identity.OnSessionChange(s.applySession))
	} else {
		s.settle(sessionFeed)
	}

	for _, collection := range models.Collections {
		collection := collection
		unsub, err := s.store.Subscribe(ctx, collection,
			func(docs []models.Document) { s.applySnapshot(collection, docs) },
			func(err error) { s.handleFeedError(collection, err) },
		)
		if err != nil {
			for _, release := range unsubs {
				release()
			}
			s.logger.Error("subscription failed", zap.String("collection", collection), zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrGatewayFailure.Code, appErrors.ErrGatewayFailure.Status, "failed to subscribe to "+collection)
		}
		unsubs = append(unsubs, unsub)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		for _, release := range unsubs {
			release()
		}
		return nil
	}
	s.unsubs = unsubs
	s.mu.Unlock()

	s.logger.Info("app state subscribed", zap.Strings("collections", models.Collections))
	return nil
}

// Close releases every subscription exactly once. Later calls are no-ops.
func (s *AppState) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		unsubs := s.unsubs
		s.unsubs = nil
		s.mu.Unlock()

		for _, release := range unsubs {
			release()
		}
		s.logger.Info("app state closed")
	})
}

// Loading reports whether any feed has yet to deliver its first event.
func (s *AppState) Loading() bool {
	select {
	case <-s.loaded:
		return false
	default:
		return true
	}
}

// WaitUntilLoaded blocks until every feed has settled or ctx ends.
func (s *AppState) WaitUntilLoaded(ctx context.Context) error {
	select {
	case <-s.loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session returns the signed-in principal, or nil.
func (s *AppState) Session() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	session := *s.session
	return &session
}

// Students returns the students matching filter.
func (s *AppState) Students(filter models.StudentFilter) []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	class := normalizeClass(filter.Class)
	out := make([]models.Student, 0, len(s.students))
	for _, student := range s.students {
		if filter.Status != "" && student.Status != filter.Status {
			continue
		}
		if class != "" && normalizeClass(student.Class) != class {
			continue
		}
		if search != "" && !containsFold(search, student.Name, student.Parent, student.Class, student.Phone) {
			continue
		}
		out = append(out, student)
	}
	return out
}

// Staff returns the current staff snapshot.
func (s *AppState) Staff() []models.StaffMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.StaffMember(nil), s.staff...)
}

// Invoices returns the current invoice snapshot.
func (s *AppState) Invoices() []models.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Invoice(nil), s.invoices...)
}

// Expenses returns the current expense snapshot.
func (s *AppState) Expenses() []models.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Expense(nil), s.expenses...)
}

// FindStudent looks a student up in the local snapshot.
func (s *AppState) FindStudent(id string) (models.Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, student := range s.students {
		if student.ID == id {
			return student, true
		}
	}
	return models.Student{}, false
}

// FindStaff looks a staff member up in the local snapshot.
func (s *AppState) FindStaff(id string) (models.StaffMember, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, member := range s.staff {
		if member.ID == id {
			return member, true
		}
	}
	return models.StaffMember{}, false
}

// FindInvoice looks an invoice up in the local snapshot.
func (s *AppState) FindInvoice(id string) (models.Invoice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return models.Invoice{}, false
}

// FindExpense looks an expense up in the local snapshot.
func (s *AppState) FindExpense(id string) (models.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, exp := range s.expenses {
		if exp.ID == id {
			return exp, true
		}
	}
	return models.Expense{}, false
}

// Stats derives the dashboard figures from the current snapshot.
func (s *AppState) Stats() dto.DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeDashboardStats(s.students, s.staff, s.invoices, s.expenses)
}

// NextInvoiceID previews the display identifier the next invoice for class
// would receive from the local snapshot.
func (s *AppState) NextInvoiceID(studentClass string) string {
	return GenerateInvoiceID(studentClass, s.Invoices())
}

func (s *AppState) applySession(session *models.Session) {
	s.mu.Lock()
	if session == nil {
		s.session = nil
	} else {
		copied := *session
		s.session = &copied
	}
	s.mu.Unlock()
	s.settle(sessionFeed)
}

func (s *AppState) applySnapshot(collection string, docs []models.Document) {
	var size int
	s.mu.Lock()
	switch collection {
	case models.CollectionStudents:
		s.students = decodeDocuments(docs, func(r *models.Student, id string) { r.ID = id }, s.decodeFailure(collection))
		size = len(s.students)
	case models.CollectionStaff:
		s.staff = decodeDocuments(docs, func(r *models.StaffMember, id string) { r.ID = id }, s.decodeFailure(collection))
		size = len(s.staff)
	case models.CollectionInvoices:
		s.invoices = decodeDocuments(docs, func(r *models.Invoice, id string) { r.ID = id }, s.decodeFailure(collection))
		size = len(s.invoices)
	case models.CollectionExpenses:
		s.expenses = decodeDocuments(docs, func(r *models.Expense, id string) { r.ID = id }, s.decodeFailure(collection))
		size = len(s.expenses)
	default:
		s.mu.Unlock()
		s.logger.Warn("snapshot for unknown collection", zap.String("collection", collection))
		return
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveSnapshot(collection, size)
	}
	s.settle(collection)
}

func (s *AppState) handleFeedError(collection string, err error) {
	s.logger.Error("collection feed failed", zap.String("collection", collection), zap.Error(err))
	if s.metrics != nil {
		s.metrics.ObserveFeedError(collection)
	}
	s.settle(collection)
}

func (s *AppState) decodeFailure(collection string) func(string, error) {
	return func(id string, err error) {
		s.logger.Warn("skipping undecodable document", zap.String("collection", collection), zap.String("id", id), zap.Error(err))
	}
}

func (s *AppState) settle(feed string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[feed]; !ok {
		return
	}
	delete(s.pending, feed)
	if len(s.pending) == 0 {
		close(s.loaded)
	}
}

// decodeDocuments turns a snapshot into typed records. The store identifier
// always wins over any id stored inside the document body.
func decodeDocuments[T any](docs []models.Document, setID func(*T, string), onError func(string, error)) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var record T
		if len(doc.Data) > 0 {
			if err := json.Unmarshal(doc.Data, &record); err != nil {
				onError(doc.ID, err)
				continue
			}
		}
		setID(&record, doc.ID)
		out = append(out, record)
	}
	return out
}

func containsFold(needle string, haystack ...string) bool {
	for _, value := range haystack {
		if strings.Contains(strings.ToLower(value), needle) {
			return true
		}
	}
	return false
}
