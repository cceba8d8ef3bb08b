package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateWatchHistoryTable, downCreateWatchHistoryTable)
}

func upCreateWatchHistoryTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS watch_history (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			video_id UUID NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
			watched_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			UNIQUE (user_id, video_id)
		);
		CREATE INDEX IF NOT EXISTS idx_watch_history_user_watched_at ON watch_history (user_id, watched_at DESC);
	`)
	return err
}

func downCreateWatchHistoryTable(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS watch_history;`)
	return err
}
