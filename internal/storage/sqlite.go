// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sentences (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	received_at INTEGER NOT NULL,
	talker      TEXT NOT NULL,
	sentence_id TEXT NOT NULL,
	sentence    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sentences_sentence_id ON sentences(sentence_id);
`

const (
	insertSentenceSQL = `INSERT INTO sentences (received_at, talker, sentence_id, sentence) VALUES (?, ?, ?, ?)`
	selectRecentSQL   = `SELECT received_at, talker, sentence_id, sentence FROM sentences ORDER BY id DESC LIMIT ?`
	countByIDSQL      = `SELECT sentence_id, COUNT(*) FROM sentences GROUP BY sentence_id`
)

var ErrMalformed = errors.New("malformed sentence")

// Record is one logged sentence.
type Record struct {
	ReceivedAt time.Time
	Talker     string
	SentenceID string
	Sentence   string
}

// SentenceLog appends every sentence written to it to an SQLite table.
// It is safe for concurrent use.
type SentenceLog struct {
	db  *sql.DB
	now func() time.Time

	closeOnce sync.Once
	closeErr  error
}

// Open opens or creates the log at path.
func Open(path string) (*SentenceLog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, "_journal_mode=WAL&_synchronous=NORMAL"))
	if err != nil {
		return nil, fmt.Errorf("storage.Open(): opening database: %w", err)
	}

	if _, err := db.Exec(initSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage.Open(): initializing schema: %w", err)
	}

	return &SentenceLog{db: db, now: time.Now}, nil
}

// Append stores one sentence. Trailing CRLF is stripped.
func (l *SentenceLog) Append(ctx context.Context, sentence string) error {
	sentence = strings.TrimRight(sentence, "\r\n")
	talker, id, err := split(sentence)
	if err != nil {
		return err
	}

	if _, err := l.db.ExecContext(ctx, insertSentenceSQL, l.now().UnixMilli(), talker, id, sentence); err != nil {
		return fmt.Errorf("storage.Append(): inserting sentence: %w", err)
	}
	return nil
}

// Write implements io.Writer so the log can be attached to the pool. p may
// hold several CRLF terminated sentences; they are stored in one
// transaction, so either all of p is logged or none of it.
func (l *SentenceLog) Write(p []byte) (n int, err error) {
	type row struct{ talker, id, sentence string }

	var rows []row
	for _, line := range bytes.Split(p, []byte("\n")) {
		sentence := strings.TrimRight(string(line), "\r")
		if strings.TrimSpace(sentence) == "" {
			continue
		}
		talker, id, err := split(sentence)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row{talker, id, sentence})
	}

	ctx := context.Background()
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage.Write(): beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	at := l.now().UnixMilli()
	for _, r := range rows {
		if _, err = tx.ExecContext(ctx, insertSentenceSQL, at, r.talker, r.id, r.sentence); err != nil {
			return 0, fmt.Errorf("storage.Write(): inserting sentence: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage.Write(): committing transaction: %w", err)
	}
	return len(p), nil
}

// Recent returns the n most recent sentences, newest first.
func (l *SentenceLog) Recent(ctx context.Context, n int) (records []Record, err error) {
	rows, err := l.db.QueryContext(ctx, selectRecentSQL, n)
	if err != nil {
		return nil, fmt.Errorf("storage.Recent(): querying sentences: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var r Record
		var ms int64
		if err = rows.Scan(&ms, &r.Talker, &r.SentenceID, &r.Sentence); err != nil {
			return nil, fmt.Errorf("storage.Recent(): scanning row: %w", err)
		}
		r.ReceivedAt = time.UnixMilli(ms)
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.Recent(): %w", err)
	}
	return records, nil
}

// Counts returns the number of logged sentences per sentence ID.
func (l *SentenceLog) Counts(ctx context.Context) (counts map[string]int64, err error) {
	rows, err := l.db.QueryContext(ctx, countByIDSQL)
	if err != nil {
		return nil, fmt.Errorf("storage.Counts(): %w", err)
	}
	defer closeWithError(rows, &err)

	counts = make(map[string]int64)
	for rows.Next() {
		var id string
		var n int64
		if err = rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("storage.Counts(): %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (l *SentenceLog) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.db.Close()
	})
	return l.closeErr
}

// split extracts the talker and sentence ID from "$TTSSS,...".
func split(sentence string) (talker, id string, err error) {
	if len(sentence) < 6 || sentence[0] != '$' {
		return "", "", fmt.Errorf("storage: %w: %q", ErrMalformed, sentence)
	}
	head, _, _ := strings.Cut(sentence[1:], ",")
	head, _, _ = strings.Cut(head, "*")
	if len(head) < 3 {
		return "", "", fmt.Errorf("storage: %w: %q", ErrMalformed, sentence)
	}
	return head[:2], head[2:], nil
}

// rollbackWithError rolls back tx unless it was already committed.
func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if rErr := rb.Rollback(); rErr != nil && !errors.Is(rErr, sql.ErrTxDone) && *err == nil {
		*err = rErr
	}
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
