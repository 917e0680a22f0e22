// Package db provides the persistence layer used by the bot. It wraps a
// SQLite database and stores each chat's recent searches and a log of
// downloads. Callers are expected to open a single DB instance using New and
// reuse it for all operations.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// MaxRecentQueries is the number of searches remembered per chat.
const MaxRecentQueries = 20

// Download outcomes recorded by AddDownload.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// DB wraps a sql.DB connection and exposes helper methods for the bot's
// persistence layer.
type DB struct {
	*sql.DB
}

// New opens the SQLite database located at path. If the file does not
// exist it is created along with the required schema.
func New(path string) (*DB, error) {
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared between
	// statements and serialises writers.
	d.SetMaxOpenConns(1)
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS searches (id INTEGER PRIMARY KEY AUTOINCREMENT, chat_id INTEGER NOT NULL, query TEXT NOT NULL, searched_at TIMESTAMP NOT NULL)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_search_chat_query ON searches(chat_id, query)`,
		`CREATE TABLE IF NOT EXISTS downloads (id INTEGER PRIMARY KEY AUTOINCREMENT, chat_id INTEGER NOT NULL, track_id TEXT, track_name TEXT, artist_name TEXT, source TEXT, status TEXT, downloaded_at TIMESTAMP NOT NULL)`,
		`CREATE INDEX IF NOT EXISTS idx_download_time ON downloads(downloaded_at)`,
	}
	// Errors here likely mean the database file is not writable.
	for _, s := range stmts {
		if _, err := d.Exec(s); err != nil {
			d.Close()
			return nil, fmt.Errorf("init db: %w", err)
		}
	}
	return &DB{d}, nil
}

// AddRecentQuery remembers query for chatID. A query the chat already
// searched keeps its original position. Only the newest MaxRecentQueries
// entries are kept.
func (db *DB) AddRecentQuery(ctx context.Context, chatID int64, query string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO searches(chat_id, query, searched_at) VALUES(?, ?, ?)`, chatID, query, time.Now().UTC()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM searches WHERE chat_id=? AND id NOT IN (SELECT id FROM searches WHERE chat_id=? ORDER BY id DESC LIMIT ?)`, chatID, chatID, MaxRecentQueries); err != nil {
		return err
	}
	return tx.Commit()
}

// RecentQueries returns up to n of the chat's most recent searches, oldest
// first.
func (db *DB) RecentQueries(ctx context.Context, chatID int64, n int) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT query FROM (SELECT id, query FROM searches WHERE chat_id=? ORDER BY id DESC LIMIT ?) ORDER BY id ASC`, chatID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var qs []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	// rows.Err returns the first error encountered while iterating.
	return qs, rows.Err()
}

// Download is one entry of the download log.
type Download struct {
	ChatID     int64
	TrackID    string
	TrackName  string
	ArtistName string
	Source     string
	Status     string
	At         time.Time
}

// AddDownload appends a download attempt to the log.
func (db *DB) AddDownload(ctx context.Context, d Download) error {
	if d.At.IsZero() {
		d.At = time.Now()
	}
	_, err := db.ExecContext(ctx, `INSERT INTO downloads(chat_id, track_id, track_name, artist_name, source, status, downloaded_at) VALUES(?,?,?,?,?,?,?)`,
		d.ChatID, d.TrackID, d.TrackName, d.ArtistName, d.Source, d.Status, d.At.UTC())
	return err
}

// TrackCount represents how many times a specific track was delivered.
type TrackCount struct {
	TrackName  string
	ArtistName string
	Count      int
}

// TopTracksSince returns up to n of the most delivered tracks across all
// chats since the given time. Failed attempts are not counted.
func (db *DB) TopTracksSince(ctx context.Context, since time.Time, n int) ([]TrackCount, error) {
	rows, err := db.QueryContext(ctx, `SELECT track_name, artist_name, COUNT(*) c FROM downloads WHERE status=? AND downloaded_at>=? GROUP BY source, track_id ORDER BY c DESC, MAX(id) DESC LIMIT ?`, StatusSent, since.UTC(), n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []TrackCount
	for rows.Next() {
		var tc TrackCount
		if err := rows.Scan(&tc.TrackName, &tc.ArtistName, &tc.Count); err != nil {
			return nil, err
		}
		res = append(res, tc)
	}
	return res, rows.Err()
}
