package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/playschool-admin/internal/models"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
)

type storeCall struct {
	op         string
	collection string
	id         string
	fields     models.Fields
}

type fakeDocumentStore struct {
	mu           sync.Mutex
	calls        []storeCall
	subscribers  map[string]func([]models.Document)
	errHandlers  map[string]func(error)
	released     map[string]int
	subscribeErr map[string]error
	mutationErr  error
	nextID       string
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{
		subscribers:  map[string]func([]models.Document){},
		errHandlers:  map[string]func(error){},
		released:     map[string]int{},
		subscribeErr: map[string]error{},
		nextID:       "doc-1",
	}
}

func (f *fakeDocumentStore) Subscribe(_ context.Context, collection string, onChange func([]models.Document), onError func(error)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.subscribeErr[collection]; err != nil {
		return nil, err
	}
	f.subscribers[collection] = onChange
	f.errHandlers[collection] = onError
	return func() {
		f.mu.Lock()
		f.released[collection]++
		f.mu.Unlock()
	}, nil
}

func (f *fakeDocumentStore) Create(_ context.Context, collection string, fields models.Fields) (string, error) {
	f.record(storeCall{op: "create", collection: collection, fields: fields})
	if f.mutationErr != nil {
		return "", f.mutationErr
	}
	return f.nextID, nil
}

func (f *fakeDocumentStore) Patch(_ context.Context, collection, id string, fields models.Fields) error {
	f.record(storeCall{op: "patch", collection: collection, id: id, fields: fields})
	return f.mutationErr
}

func (f *fakeDocumentStore) Delete(_ context.Context, collection, id string) error {
	f.record(storeCall{op: "delete", collection: collection, id: id})
	return f.mutationErr
}

func (f *fakeDocumentStore) record(call storeCall) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeDocumentStore) deliver(t *testing.T, collection string, records ...interface{}) {
	t.Helper()
	docs := make([]models.Document, 0, len(records))
	for i, record := range records {
		raw, err := json.Marshal(record)
		require.NoError(t, err)
		var head struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(raw, &head)
		id := head.ID
		if id == "" {
			id = collection + "-" + string(rune('a'+i))
		}
		docs = append(docs, models.Document{ID: id, Data: raw})
	}
	f.mu.Lock()
	cb := f.subscribers[collection]
	f.mu.Unlock()
	require.NotNil(t, cb, "no subscriber for %s", collection)
	cb(docs)
}

func (f *fakeDocumentStore) fail(collection string, err error) {
	f.mu.Lock()
	cb := f.errHandlers[collection]
	f.mu.Unlock()
	cb(err)
}

type fakeIdentity struct {
	listener func(*models.Session)
	released int
}

func (f *fakeIdentity) OnSessionChange(cb func(*models.Session)) func() {
	f.listener = cb
	return func() { f.released++ }
}

func (f *fakeIdentity) SignIn(context.Context, string, string) (*models.Session, error) {
	return nil, nil
}

func (f *fakeIdentity) SignUp(context.Context, string, string) (*models.Session, error) {
	return nil, nil
}

func (f *fakeIdentity) SignOut(context.Context) error { return nil }

type failingAllocator struct{ err error }

func (a failingAllocator) Next(context.Context, string, []models.Invoice) (string, error) {
	return "", a.err
}

func newTestAppState(t *testing.T) (*AppState, *fakeDocumentStore, *fakeIdentity) {
	t.Helper()
	store := newFakeDocumentStore()
	identity := &fakeIdentity{}
	state := NewAppState(AppStateParams{Store: store, Identity: identity})
	state.now = func() time.Time { return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC) }
	require.NoError(t, state.Initialize(context.Background()))
	return state, store, identity
}

func TestAppStateLoadingUntilAllFeedsSettle(t *testing.T) {
	state, store, identity := newTestAppState(t)

	assert.True(t, state.Loading())
	identity.listener(nil)
	store.deliver(t, models.CollectionStudents)
	store.deliver(t, models.CollectionStaff)
	store.deliver(t, models.CollectionInvoices)
	assert.True(t, state.Loading())

	store.fail(models.CollectionExpenses, errors.New("permission denied"))
	assert.False(t, state.Loading())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, state.WaitUntilLoaded(ctx))
	assert.Empty(t, state.Expenses())
}

func TestAppStateWaitUntilLoadedHonoursContext(t *testing.T) {
	state, _, _ := newTestAppState(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, state.WaitUntilLoaded(ctx), context.Canceled)
}

func TestAppStateSnapshotReplacesCollection(t *testing.T) {
	state, store, _ := newTestAppState(t)

	store.deliver(t, models.CollectionStudents,
		models.Student{ID: "s1", Name: "Alice"},
		models.Student{ID: "s2", Name: "Bob"},
	)
	require.Len(t, state.Students(models.StudentFilter{}), 2)

	store.deliver(t, models.CollectionStudents, models.Student{ID: "s3", Name: "Cara"})
	students := state.Students(models.StudentFilter{})
	require.Len(t, students, 1)
	assert.Equal(t, "s3", students[0].ID)
}

func TestAppStateSkipsUndecodableDocuments(t *testing.T) {
	state, store, _ := newTestAppState(t)

	store.subscribers[models.CollectionStaff]([]models.Document{
		{ID: "ok", Data: json.RawMessage(`{"name":"Mr. Baker","salary":"12000"}`)},
		{ID: "bad", Data: json.RawMessage(`["not","an","object"]`)},
	})

	staff := state.Staff()
	require.Len(t, staff, 1)
	assert.Equal(t, "ok", staff[0].ID)
	assert.Equal(t, 12000.0, staff[0].Salary.Float())
}

func TestAppStateKeepsRecordsWithNonStringTextFields(t *testing.T) {
	state, store, _ := newTestAppState(t)

	store.subscribers[models.CollectionStudents]([]models.Document{
		{ID: "s1", Data: json.RawMessage(`{"name":"Alice","phone":"555-0101","status":"Active"}`)},
		{ID: "s2", Data: json.RawMessage(`{"name":"Bob","phone":5550102,"class":null,"createdAt":1710495000000}`)},
	})
	store.subscribers[models.CollectionInvoices]([]models.Document{
		{ID: "i1", Data: json.RawMessage(`{"student":"Bob","studentClass":1,"amount":450,"paid":450,"date":true}`)},
	})

	stats := state.Stats()
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, 450.0, stats.TotalFeesCollected)

	invoices := state.Invoices()
	require.Len(t, invoices, 1)
	assert.Equal(t, "1", invoices[0].StudentClass)
	assert.Equal(t, "true", invoices[0].Date)

	bob, found := state.FindStudent("s2")
	require.True(t, found)
	assert.Equal(t, "5550102", bob.Phone)
	assert.Empty(t, bob.Class)
}

func TestAppStateInitializeTwiceFails(t *testing.T) {
	state, _, _ := newTestAppState(t)
	assert.ErrorIs(t, state.Initialize(context.Background()), ErrAlreadyInitialized)
}

func TestAppStateInitializeReleasesOnSubscribeFailure(t *testing.T) {
	store := newFakeDocumentStore()
	store.subscribeErr[models.CollectionInvoices] = errors.New("boom")
	identity := &fakeIdentity{}
	state := NewAppState(AppStateParams{Store: store, Identity: identity})

	err := state.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrGatewayFailure)
	assert.Equal(t, 1, identity.released)
	assert.Equal(t, 1, store.released[models.CollectionStudents])
	assert.Equal(t, 1, store.released[models.CollectionStaff])
}

func TestAppStateCloseIsIdempotent(t *testing.T) {
	state, store, identity := newTestAppState(t)

	state.Close()
	state.Close()

	assert.Equal(t, 1, identity.released)
	for _, collection := range models.Collections {
		assert.Equal(t, 1, store.released[collection], collection)
	}
}

func TestAppStateDeleteWithEmptyIDSkipsStore(t *testing.T) {
	state, store, _ := newTestAppState(t)
	ctx := context.Background()

	err := state.DeleteStudent(ctx, "")
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)
	err = state.DeleteInvoice(ctx, "  ")
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)
	_, err = state.UpdateInvoice(ctx, "", UpdateInvoiceRequest{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	assert.Empty(t, store.calls)
}

func TestAppStateMutationFailuresAreUniform(t *testing.T) {
	state, store, _ := newTestAppState(t)
	store.mutationErr = errors.New("network unreachable")
	ctx := context.Background()

	_, err := state.AddExpense(ctx, CreateExpenseRequest{Title: "Internet Bill", Amount: 89.99})
	assert.ErrorIs(t, err, appErrors.ErrGatewayFailure)
	assert.Contains(t, err.Error(), "failed to add expense")

	err = state.DeleteStaff(ctx, "st1")
	assert.ErrorIs(t, err, appErrors.ErrGatewayFailure)

	store.mutationErr = appErrors.Clone(appErrors.ErrNotFound, "document not found")
	err = state.UpdateExpense(ctx, "missing", UpdateExpenseRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAppStateAddStudentStampsCreatedAt(t *testing.T) {
	state, store, _ := newTestAppState(t)

	ack, err := state.AddStudent(context.Background(), CreateStudentRequest{Name: "Alice", Class: "Kindergarten"})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", ack.ID)

	require.Len(t, store.calls, 1)
	call := store.calls[0]
	assert.Equal(t, models.CollectionStudents, call.collection)
	assert.Equal(t, "2024-03-15T09:30:00.000Z", call.fields["createdAt"])
	assert.Equal(t, string(models.StudentActive), call.fields["status"])
}

func TestAppStateAddStudentValidates(t *testing.T) {
	state, store, _ := newTestAppState(t)

	_, err := state.AddStudent(context.Background(), CreateStudentRequest{Class: "Nursery"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, store.calls)
}

func TestAppStateAddInvoiceAllocatesDisplayID(t *testing.T) {
	state, store, _ := newTestAppState(t)
	store.deliver(t, models.CollectionInvoices,
		models.Invoice{ID: "i1", DisplayID: "APSUK001", StudentClass: "Kindergarten"},
	)

	ack, err := state.AddInvoice(context.Background(), CreateInvoiceRequest{
		Student:      "Eva Davis",
		StudentClass: "Kindergarten",
		Amount:       450,
		Paid:         450,
		Type:         "Tuition",
	})
	require.NoError(t, err)
	assert.Equal(t, "APSUK002", ack.DisplayID)

	fields := store.calls[0].fields
	assert.Equal(t, "APSUK002", fields["displayId"])
	assert.Equal(t, string(models.InvoicePaid), fields["status"])
	assert.Equal(t, "2024-03-15T09:30:00.000Z", fields["createdAt"])
}

func TestAppStateAddInvoiceKeepsExplicitStatus(t *testing.T) {
	state, store, _ := newTestAppState(t)

	_, err := state.AddInvoice(context.Background(), CreateInvoiceRequest{
		Student: "David Brown", Amount: 50, Status: models.InvoiceOverdue, Type: "Transport",
	})
	require.NoError(t, err)
	assert.Equal(t, "APSINV001", store.calls[0].fields["displayId"])
	assert.Equal(t, string(models.InvoiceOverdue), store.calls[0].fields["status"])
}

func TestAppStateAddInvoiceAllocatorFailure(t *testing.T) {
	store := newFakeDocumentStore()
	state := NewAppState(AppStateParams{Store: store, Allocator: failingAllocator{err: errors.New("redis down")}})
	require.NoError(t, state.Initialize(context.Background()))

	_, err := state.AddInvoice(context.Background(), CreateInvoiceRequest{Student: "Alice"})
	assert.ErrorIs(t, err, appErrors.ErrGatewayFailure)
	assert.Empty(t, store.calls)
}

func TestAppStateUpdateInvoiceBackfillsDisplayID(t *testing.T) {
	state, store, _ := newTestAppState(t)
	store.deliver(t, models.CollectionInvoices,
		models.Invoice{ID: "legacy", Student: "Charlie", StudentClass: "Pre-Nursery", Amount: 450, Paid: 200},
		models.Invoice{ID: "i2", DisplayID: "APSPR004", StudentClass: "Pre-Nursery"},
	)

	paid := models.Number(450)
	ack, err := state.UpdateInvoice(context.Background(), "legacy", UpdateInvoiceRequest{Paid: &paid})
	require.NoError(t, err)
	assert.Equal(t, "APSPR005", ack.DisplayID)

	fields := store.calls[0].fields
	assert.Equal(t, "APSPR005", fields["displayId"])
	assert.Equal(t, string(models.InvoicePaid), fields["status"])
	assert.Equal(t, 450.0, fields["paid"])
	_, hasAmount := fields["amount"]
	assert.False(t, hasAmount)
}

func TestAppStateUpdateInvoiceKeepsExistingDisplayID(t *testing.T) {
	state, store, _ := newTestAppState(t)
	store.deliver(t, models.CollectionInvoices,
		models.Invoice{ID: "i1", DisplayID: "APSC1003", StudentClass: "Grade 1"},
	)

	invType := "Transport"
	ack, err := state.UpdateInvoice(context.Background(), "i1", UpdateInvoiceRequest{Type: &invType})
	require.NoError(t, err)
	assert.Equal(t, "APSC1003", ack.DisplayID)
	_, hasDisplayID := store.calls[0].fields["displayId"]
	assert.False(t, hasDisplayID)
}

type countingAllocator struct {
	calls   int
	classes []string
}

func (a *countingAllocator) Next(_ context.Context, studentClass string, invoices []models.Invoice) (string, error) {
	a.calls++
	a.classes = append(a.classes, studentClass)
	return GenerateInvoiceID(studentClass, invoices), nil
}

func TestAppStateUpdateInvoiceBackfillUsesAllocator(t *testing.T) {
	store := newFakeDocumentStore()
	allocator := &countingAllocator{}
	state := NewAppState(AppStateParams{Store: store, Allocator: allocator})
	require.NoError(t, state.Initialize(context.Background()))
	store.deliver(t, models.CollectionInvoices,
		models.Invoice{ID: "legacy", Student: "Dev", StudentClass: "Grade 1", Amount: 300},
		models.Invoice{ID: "i2", DisplayID: "APSC1001", StudentClass: "Grade 1"},
	)

	invType := "Tuition"
	ack, err := state.UpdateInvoice(context.Background(), "legacy", UpdateInvoiceRequest{Type: &invType})
	require.NoError(t, err)
	assert.Equal(t, 1, allocator.calls)
	assert.Equal(t, []string{"Grade 1"}, allocator.classes)
	assert.Equal(t, "APSC1002", ack.DisplayID)
	assert.Equal(t, "APSC1002", store.calls[0].fields["displayId"])

	_, err = state.UpdateInvoice(context.Background(), "i2", UpdateInvoiceRequest{Type: &invType})
	require.NoError(t, err)
	assert.Equal(t, 1, allocator.calls)
}

func TestAppStateUpdateInvoiceBackfillAllocationFailure(t *testing.T) {
	store := newFakeDocumentStore()
	state := NewAppState(AppStateParams{Store: store, Allocator: failingAllocator{err: errors.New("redis down")}})
	require.NoError(t, state.Initialize(context.Background()))
	store.deliver(t, models.CollectionInvoices, models.Invoice{ID: "legacy", StudentClass: "Grade 1"})

	invType := "Tuition"
	_, err := state.UpdateInvoice(context.Background(), "legacy", UpdateInvoiceRequest{Type: &invType})
	assert.ErrorIs(t, err, appErrors.ErrGatewayFailure)
	assert.Empty(t, store.calls)
}

func TestAppStateStaffCategoryClearsIrrelevantField(t *testing.T) {
	state, store, _ := newTestAppState(t)
	ctx := context.Background()

	_, err := state.AddStaff(ctx, CreateStaffRequest{
		Name: "Mr. John", Category: models.StaffSupport, Role: "Driver", Subject: "Math",
	})
	require.NoError(t, err)
	created := store.calls[0].fields
	assert.Equal(t, "Driver", created["role"])
	assert.Nil(t, created["subject"])
	assert.Contains(t, created, "subject")

	teaching := models.StaffTeaching
	require.NoError(t, state.UpdateStaff(ctx, "st1", UpdateStaffRequest{Category: &teaching}))
	patched := store.calls[1].fields
	assert.Contains(t, patched, "role")
	assert.Nil(t, patched["role"])
}

func TestAppStatePaySalary(t *testing.T) {
	state, store, _ := newTestAppState(t)
	store.deliver(t, models.CollectionStaff,
		models.StaffMember{ID: "st1", Name: "Mrs. Anderson", Salary: 25000},
	)

	_, err := state.PaySalary(context.Background(), "st1", SalaryPaymentRequest{})
	require.NoError(t, err)

	call := store.calls[0]
	assert.Equal(t, models.CollectionExpenses, call.collection)
	assert.Equal(t, "Salary - Mrs. Anderson", call.fields["title"])
	assert.Equal(t, models.ExpenseCategorySalary, call.fields["category"])
	assert.Equal(t, 25000.0, call.fields["amount"])
	assert.Equal(t, "2024-03-15", call.fields["date"])
	assert.Equal(t, "st1", call.fields["staffId"])
}

func TestAppStatePaySalaryUnknownStaff(t *testing.T) {
	state, store, _ := newTestAppState(t)

	_, err := state.PaySalary(context.Background(), "ghost", SalaryPaymentRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Empty(t, store.calls)
}

func TestAppStateStatsAndNextInvoiceID(t *testing.T) {
	state, store, _ := newTestAppState(t)
	store.deliver(t, models.CollectionInvoices,
		models.Invoice{ID: "i1", DisplayID: "APSUK001", StudentClass: "Kindergarten", Amount: 450, Paid: 450, Date: "2023-10-01"},
		models.Invoice{ID: "i2", StudentClass: "Pre-Nursery", Amount: 450, Paid: 200, Date: "2023-10-02"},
	)
	store.deliver(t, models.CollectionExpenses, models.Expense{ID: "e1", Title: "Internet", Amount: 89.99})

	stats := state.Stats()
	assert.Equal(t, 650.0, stats.TotalFeesCollected)
	assert.InDelta(t, 89.99, stats.TotalExpenses, 1e-9)
	assert.Equal(t, 250.0, stats.OutstandingFees)

	assert.Equal(t, "APSUK002", state.NextInvoiceID("Kindergarten"))
	assert.Equal(t, "APSPR002", state.NextInvoiceID("Pre-Nursery"))
}

func TestAppStateStudentFilter(t *testing.T) {
	state, store, _ := newTestAppState(t)
	store.deliver(t, models.CollectionStudents,
		models.Student{ID: "s1", Name: "Alice Johnson", Class: "Kindergarten", Status: models.StudentActive},
		models.Student{ID: "s2", Name: "David Brown", Class: "Nursery", Status: models.StudentInactive},
		models.Student{ID: "s3", Name: "Grace Lee", Class: "nursery ", Parent: "David Lee", Status: models.StudentActive},
	)

	assert.Len(t, state.Students(models.StudentFilter{Class: "Nursery"}), 2)
	assert.Len(t, state.Students(models.StudentFilter{Search: "david"}), 2)
	active := state.Students(models.StudentFilter{Search: "david", Status: models.StudentActive})
	require.Len(t, active, 1)
	assert.Equal(t, "s3", active[0].ID)
}

func TestAppStateSessionFollowsIdentity(t *testing.T) {
	state, _, identity := newTestAppState(t)

	identity.listener(&models.Session{UserID: "u1", Email: "admin@kidzone.com"})
	require.NotNil(t, state.Session())
	assert.Equal(t, "u1", state.Session().UserID)

	identity.listener(nil)
	assert.Nil(t, state.Session())
}
