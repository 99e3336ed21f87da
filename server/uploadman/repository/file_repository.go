package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"upload_server/server/uploadman/domain"
)

type FileRepository struct {
	pool *pgxpool.Pool
}

func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{pool: pool}
}

// EnsureSchema creates the files table when absent. Safe to run on every boot.
func (r *FileRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS files(
			id           UUID PRIMARY KEY,
			filename     TEXT NOT NULL,
			content_type TEXT NOT NULL,
			size         BIGINT NOT NULL,
			upload_date  TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

// Insert writes one record inside its own transaction. Either the row is
// committed or nothing is; no partial state escapes.
func (r *FileRepository) Insert(ctx context.Context, rec domain.FileRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO files(id, filename, content_type, size, upload_date)
		VALUES($1, $2, $3, $4, $5)
	`, rec.ID, rec.Filename, rec.ContentType, rec.Size, rec.UploadDate)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
