package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// NewEmbedded открывает локальную sqlite-базу для fallback-режима очереди жалоб.
// Используется, когда общий durable backend не сконфигурирован.
func NewEmbedded(path string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: не удалось создать каталог %s: %w", filepath.Dir(path), err)
	}

	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: не удалось открыть базу %s: %w", path, err)
	}

	// modernc-драйвер не любит конкурентные writer'ы, ограничиваем пул.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(embeddedSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: не удалось применить схему: %w", err)
	}

	return conn, nil
}

// embeddedSchema — локальная схема fallback-хранилища: только очередь жалоб
// и набор скрытых постов. Квоты и записи медиа живут исключительно в общем backend'е.
const embeddedSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	report_type TEXT NOT NULL,
	target_user_id TEXT NOT NULL,
	target_post_id TEXT,
	reason TEXT NOT NULL,
	reporter_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS removed_posts (
	post_id TEXT PRIMARY KEY
);
`
