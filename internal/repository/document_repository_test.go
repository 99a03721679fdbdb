package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/playschool-admin/internal/models"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
)

func newDocumentRepo(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	db, mock, cleanup := newMock(t)
	repo := NewDocumentRepository(db)
	repo.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	return repo, mock, cleanup
}

func TestDocumentRepositoryList(t *testing.T) {
	repo, mock, cleanup := newDocumentRepo(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "data"}).
		AddRow("0b6e7a2c-1111-4d8e-9a55-2d1f0f7a0001", []byte(`{"name":"Alice"}`)).
		AddRow("0b6e7a2c-1111-4d8e-9a55-2d1f0f7a0002", []byte(`{"name":"Bob"}`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at, id")).
		WithArgs(models.CollectionStudents).
		WillReturnRows(rows)

	docs, err := repo.List(context.Background(), models.CollectionStudents)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.JSONEq(t, `{"name":"Bob"}`, string(docs[1].Data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryRejectsUnknownCollection(t *testing.T) {
	repo, mock, cleanup := newDocumentRepo(t)
	defer cleanup()

	_, err := repo.List(context.Background(), "parents")
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryCreate(t *testing.T) {
	repo, mock, cleanup := newDocumentRepo(t)
	defer cleanup()

	now := repo.now()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)")).
		WithArgs(models.CollectionExpenses, sqlmock.AnyArg(), []byte(`{"amount":89.99,"title":"Internet Bill"}`), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Create(context.Background(), models.CollectionExpenses, models.Fields{
		"id":     "client-supplied",
		"title":  "Internet Bill",
		"amount": 89.99,
	})
	require.NoError(t, err)
	_, parseErr := uuid.Parse(id)
	assert.NoError(t, parseErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryPatchMergesFields(t *testing.T) {
	repo, mock, cleanup := newDocumentRepo(t)
	defer cleanup()

	id := uuid.NewString()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET data = data || $3::jsonb, updated_at = $4 WHERE collection = $1 AND id = $2")).
		WithArgs(models.CollectionStaff, id, []byte(`{"category":"Teaching","role":null}`), repo.now()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Patch(context.Background(), models.CollectionStaff, id, models.Fields{"category": "Teaching", "role": nil})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryPatchMissingDocument(t *testing.T) {
	repo, mock, cleanup := newDocumentRepo(t)
	defer cleanup()

	mock.ExpectExec("UPDATE documents").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Patch(context.Background(), models.CollectionInvoices, uuid.NewString(), models.Fields{"paid": 10})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryDeleteValidatesID(t *testing.T) {
	repo, mock, cleanup := newDocumentRepo(t)
	defer cleanup()

	err := repo.Delete(context.Background(), models.CollectionStudents, "")
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)
	err = repo.Delete(context.Background(), models.CollectionStudents, "INV-001")
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryDeleteDriverError(t *testing.T) {
	repo, mock, cleanup := newDocumentRepo(t)
	defer cleanup()

	id := uuid.NewString()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs(models.CollectionStudents, id).
		WillReturnError(errors.New("connection reset"))

	err := repo.Delete(context.Background(), models.CollectionStudents, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
