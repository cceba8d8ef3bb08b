package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateVideosTable, downCreateVideosTable)
}

func upCreateVideosTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS videos (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			video_url TEXT NOT NULL,
			thumbnail_url TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			duration_seconds DOUBLE PRECISION NOT NULL,
			views BIGINT NOT NULL DEFAULT 0,
			is_published BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_videos_owner ON videos (owner_id);
	`)
	return err
}

func downCreateVideosTable(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS videos;`)
	return err
}
