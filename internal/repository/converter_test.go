package repository

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow replays one row of documentColumns in column order.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = r.values[i].(uuid.UUID)
		case *string:
			*p = r.values[i].(string)
		case *int64:
			*p = r.values[i].(int64)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return errors.New("unexpected destination type")
		}
	}
	return nil
}

func TestScanDocument(t *testing.T) {
	docID := uuid.New()
	folderID := uuid.New()
	uploaded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	doc, err := scanDocument(fakeRow{values: []any{
		docID, folderID, "report.pdf", "uploads/f/1_report.pdf", int64(2048),
		"pdf", entity.MimePDF, "page one", "ready", uploaded,
	}})
	require.NoError(t, err)

	assert.Equal(t, &entity.Document{
		ID:         docID.String(),
		FolderID:   folderID.String(),
		Name:       "report.pdf",
		Path:       "uploads/f/1_report.pdf",
		Size:       2048,
		Type:       entity.FileTypePDF,
		MimeType:   entity.MimePDF,
		Content:    "page one",
		Status:     entity.DocumentStatusReady,
		UploadedAt: uploaded,
	}, doc)
}

func TestScanDocumentPropagatesNoRows(t *testing.T) {
	doc, err := scanDocument(fakeRow{err: pgx.ErrNoRows})
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestDocumentColumnsMatchScan(t *testing.T) {
	var scanned int
	row := countingRow{n: &scanned}
	_, _ = scanDocument(row)

	assert.Len(t, strings.Split(documentColumns, ","), scanned)
}

type countingRow struct {
	n *int
}

func (r countingRow) Scan(dest ...any) error {
	*r.n = len(dest)
	return nil
}
