package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ DocumentRepository = &DocumentPostgres{}

// DocumentPostgres implements DocumentRepository using PostgreSQL
type DocumentPostgres struct {
	db *pgxpool.Pool
}

func NewDocumentPostgres(db *pgxpool.Pool) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

const documentColumns = `id, folder_id, name, path, size, type, mime_type, content, status, uploaded_at`

func (r *DocumentPostgres) Create(ctx context.Context, doc entity.Document) (*entity.Document, error) {
	docID, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}
	folderID, err := uuid.Parse(doc.FolderID)
	if err != nil {
		return nil, fmt.Errorf("%w: folder id %q", entity.ErrInvalidParameter, doc.FolderID)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO documents (id, folder_id, name, path, size, type, mime_type, content, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+documentColumns,
		docID, folderID, doc.Name, doc.Path, doc.Size, string(doc.Type), doc.MimeType, doc.Content, string(doc.Status),
	)

	created, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return created, nil
}

func (r *DocumentPostgres) Get(ctx context.Context, id string) (*entity.Document, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, entity.ErrDocumentNotFound
	}

	row := r.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, docID)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (r *DocumentPostgres) ListByFolder(ctx context.Context, folderID string) ([]*entity.Document, error) {
	fid, err := uuid.Parse(folderID)
	if err != nil {
		return []*entity.Document{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE folder_id = $1
		ORDER BY uploaded_at DESC, id`,
		fid,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*entity.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return docs, nil
}

func (r *DocumentPostgres) UpdateStatus(ctx context.Context, id string, status entity.DocumentStatus) error {
	docID, err := uuid.Parse(id)
	if err != nil {
		return entity.ErrDocumentNotFound
	}

	tag, err := r.db.Exec(ctx, `UPDATE documents SET status = $2 WHERE id = $1`, docID, string(status))
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrDocumentNotFound
	}
	return nil
}

// Delete removes the document; chunks go with it through the foreign key cascade.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	docID, err := uuid.Parse(id)
	if err != nil {
		return entity.ErrDocumentNotFound
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, docID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrDocumentNotFound
	}
	return nil
}
