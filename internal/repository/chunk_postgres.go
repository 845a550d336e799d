package repository

import (
	"context"
	"fmt"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var _ ChunkRepository = &ChunkPostgres{}

// ChunkPostgres stores chunk embeddings in a pgvector column
type ChunkPostgres struct {
	db *pgxpool.Pool
}

func NewChunkPostgres(db *pgxpool.Pool) *ChunkPostgres {
	return &ChunkPostgres{db: db}
}

// InsertChunks writes all chunks in one batch; the batch commits or fails as a whole.
func (r *ChunkPostgres) InsertChunks(ctx context.Context, chunks []entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, ch := range chunks {
		docID, err := uuid.Parse(ch.DocumentID)
		if err != nil {
			return fmt.Errorf("parse document ID: %w", err)
		}
		folderID, err := uuid.Parse(ch.FolderID)
		if err != nil {
			return fmt.Errorf("parse folder ID: %w", err)
		}

		batch.Queue(`
			INSERT INTO chunks (document_id, folder_id, page_number, chunk_index, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			docID, folderID, ch.PageNumber, ch.ChunkIndex, ch.Content, pgvector.NewVector(ch.Embedding),
		)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

// SearchChunks ranks folder chunks by cosine similarity, 1 - cosine distance.
// The scan is exact: every chunk of the folder is scored before the limit applies.
func (r *ChunkPostgres) SearchChunks(ctx context.Context, params SearchParams) ([]entity.ChunkMatch, error) {
	folderID, err := uuid.Parse(params.FolderID)
	if err != nil {
		// no folder can carry this id
		return []entity.ChunkMatch{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT c.document_id, d.name, c.content, c.page_number, c.chunk_index,
		       1 - (c.embedding <=> $1) AS similarity
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.folder_id = $2
		  AND 1 - (c.embedding <=> $1) >= $3
		ORDER BY c.embedding <=> $1 ASC, c.chunk_index ASC, c.document_id ASC
		LIMIT $4`,
		pgvector.NewVector(params.Embedding), folderID, params.Threshold, params.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	matches := make([]entity.ChunkMatch, 0, params.Limit)
	for rows.Next() {
		var (
			m     entity.ChunkMatch
			docID uuid.UUID
		)
		if err := rows.Scan(&docID, &m.DocumentName, &m.Content, &m.PageNumber, &m.ChunkIndex, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan chunk match: %w", err)
		}
		m.DocumentID = docID.String()
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	return matches, nil
}
