package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/playschool-admin/internal/models"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
)

// DocumentRepository stores schemaless records in the documents table.
type DocumentRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewDocumentRepository creates a new instance of DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db, now: time.Now}
}

// List returns every document in a collection, oldest first.
func (r *DocumentRepository) List(ctx context.Context, collection string) ([]models.Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	const query = `SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at, id`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, collection); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

// Create inserts a document with a generated identifier.
func (r *DocumentRepository) Create(ctx context.Context, collection string, fields models.Fields) (string, error) {
	if err := checkCollection(collection); err != nil {
		return "", err
	}
	payload, err := encodeFields(fields.Without("id"))
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	now := r.now().UTC()
	const query = `INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, collection, id, payload, now, now); err != nil {
		return "", fmt.Errorf("create %s document: %w", collection, err)
	}
	return id, nil
}

// Patch merges fields into an existing document. A nil value stores JSON null.
func (r *DocumentRepository) Patch(ctx context.Context, collection, id string, fields models.Fields) error {
	if err := checkDocumentRef(collection, id); err != nil {
		return err
	}
	payload, err := encodeFields(fields.Without("id"))
	if err != nil {
		return err
	}
	const query = `UPDATE documents SET data = data || $3::jsonb, updated_at = $4 WHERE collection = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, collection, id, payload, r.now().UTC())
	if err != nil {
		return fmt.Errorf("patch %s/%s: %w", collection, id, err)
	}
	return requireAffected(res, collection, id)
}

// Delete removes a document.
func (r *DocumentRepository) Delete(ctx context.Context, collection, id string) error {
	if err := checkDocumentRef(collection, id); err != nil {
		return err
	}
	const query = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return requireAffected(res, collection, id)
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireAffected(res rowsAffecter, collection, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s/%s: %w", collection, id, err)
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s document %s not found", collection, id))
	}
	return nil
}

func encodeFields(fields models.Fields) ([]byte, error) {
	if fields == nil {
		fields = models.Fields{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "fields are not serialisable")
	}
	return payload, nil
}

func checkCollection(collection string) error {
	for _, known := range models.Collections {
		if collection == known {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrInvalidArgument, fmt.Sprintf("unknown collection %q", collection))
}

func checkDocumentRef(collection, id string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if id == "" {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "document id is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidArgument, fmt.Sprintf("malformed document id %q", id))
	}
	return nil
}
