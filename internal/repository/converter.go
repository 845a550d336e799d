package repository

import (
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var (
		doc              entity.Document
		docID, folderID  uuid.UUID
		fileType, status string
	)

	err := row.Scan(
		&docID,
		&folderID,
		&doc.Name,
		&doc.Path,
		&doc.Size,
		&fileType,
		&doc.MimeType,
		&doc.Content,
		&status,
		&doc.UploadedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.ID = docID.String()
	doc.FolderID = folderID.String()
	doc.Type = entity.FileType(fileType)
	doc.Status = entity.DocumentStatus(status)
	return &doc, nil
}
