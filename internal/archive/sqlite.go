// internal/archive/sqlite.go
// Package: archive
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mwiater/lmbench/internal/results"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    source         TEXT PRIMARY KEY,
    generated_at   TEXT,
    total_requests INTEGER NOT NULL,
    imported_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    source                TEXT NOT NULL,
    seq                   INTEGER NOT NULL,
    timestamp_send        TEXT,
    timestamp_response    TEXT,
    elapsed_seconds       REAL NOT NULL,
    prompt                TEXT NOT NULL,
    response              TEXT,
    prompt_length_chars   INTEGER NOT NULL,
    response_length_chars INTEGER NOT NULL,
    prompt_tokens         INTEGER,
    completion_tokens     INTEGER,
    total_tokens          INTEGER,
    max_tokens_requested  INTEGER NOT NULL,
    temperature           REAL NOT NULL,
    model                 TEXT NOT NULL,
    status                TEXT NOT NULL,
    category              TEXT NOT NULL DEFAULT '',
    topic                 TEXT NOT NULL DEFAULT '',
    size_category         TEXT NOT NULL DEFAULT '',
    size_words            INTEGER NOT NULL DEFAULT 0,
    repetition            INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS records_source_idx ON records (source);
CREATE INDEX IF NOT EXISTS records_model_idx ON records (model);
`

// Store archives run files in a SQLite database so results of many runs can be
// aggregated together.
type Store struct {
	Path string
	db   *sql.DB
	now  func() time.Time
}

// RunInfo describes one imported run file.
type RunInfo struct {
	Source        string
	GeneratedAt   time.Time
	TotalRequests int
	ImportedAt    time.Time
}

// Filter narrows Records. Empty fields match everything.
type Filter struct {
	Model  string
	Source string
}

// Open opens or creates the archive at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("archive path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive directory %q: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open archive %q: %w", path, err)
	}
	s := &Store{Path: path, db: db, now: time.Now}

	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure archive schema: %w", err)
	}
	return s, nil
}

func (s *Store) configure() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		return fmt.Errorf("enable sqlite WAL mode: %w", err)
	}
	if _, err := s.db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		return fmt.Errorf("set sqlite busy timeout: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ImportRun stores run under source, replacing any earlier import of the same
// source. It returns the number of records written.
func (s *Store) ImportRun(ctx context.Context, source string, run results.Run) (int, error) {
	if source == "" {
		return 0, errors.New("import needs a source name")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin archive transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE source = ?`, source); err != nil {
		return 0, fmt.Errorf("clear records of %q: %w", source, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE source = ?`, source); err != nil {
		return 0, fmt.Errorf("clear run %q: %w", source, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (source, generated_at, total_requests, imported_at) VALUES (?, ?, ?, ?)`,
		source, nullTime(run.Metadata.GeneratedAt.Time), len(run.Results), formatTime(s.now()),
	); err != nil {
		return 0, fmt.Errorf("insert run %q: %w", source, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO records (
    source,
    seq,
    timestamp_send,
    timestamp_response,
    elapsed_seconds,
    prompt,
    response,
    prompt_length_chars,
    response_length_chars,
    prompt_tokens,
    completion_tokens,
    total_tokens,
    max_tokens_requested,
    temperature,
    model,
    status,
    category,
    topic,
    size_category,
    size_words,
    repetition
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range run.Results {
		var response any
		if r.Response != nil {
			response = *r.Response
		}
		if _, err := stmt.ExecContext(ctx,
			source,
			i,
			nullTime(r.TimestampSend.Time),
			nullTime(r.TimestampResponse.Time),
			r.ElapsedSeconds,
			r.Prompt,
			response,
			r.PromptLengthChars,
			r.ResponseLengthChars,
			nullInt(r.PromptTokens),
			nullInt(r.CompletionTokens),
			nullInt(r.TotalTokens),
			r.MaxTokensRequested,
			r.Temperature,
			r.Model,
			r.Status.String(),
			r.Category,
			r.Topic,
			r.SizeCategory,
			r.SizeWords,
			r.Repetition,
		); err != nil {
			return 0, fmt.Errorf("insert record %d of %q: %w", i, source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit archive transaction: %w", err)
	}
	return len(run.Results), nil
}

// Records returns the archived records matching f in import order.
func (s *Store) Records(ctx context.Context, f Filter) ([]results.Record, error) {
	query := `
SELECT timestamp_send, timestamp_response, elapsed_seconds, prompt, response,
       prompt_length_chars, response_length_chars, prompt_tokens, completion_tokens,
       total_tokens, max_tokens_requested, temperature, model, status, category,
       topic, size_category, size_words, repetition
FROM records`
	var where []string
	var args []any
	if f.Model != "" {
		where = append(where, "model = ?")
		args = append(args, f.Model)
	}
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, f.Source)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := []results.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// Runs lists the imported sources, oldest import first.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, generated_at, total_requests, imported_at FROM runs ORDER BY imported_at, source`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := []RunInfo{}
	for rows.Next() {
		var info RunInfo
		var generated sql.NullString
		var imported string
		if err := rows.Scan(&info.Source, &generated, &info.TotalRequests, &imported); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if info.GeneratedAt, err = parseNullTime(generated); err != nil {
			return nil, err
		}
		if info.ImportedAt, err = results.ParseTimestamp(imported); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func scanRecord(rows *sql.Rows) (results.Record, error) {
	var (
		r                  results.Record
		send, resp         sql.NullString
		response           sql.NullString
		prompt, completion sql.NullInt64
		total              sql.NullInt64
		status             string
	)
	if err := rows.Scan(
		&send, &resp, &r.ElapsedSeconds, &r.Prompt, &response,
		&r.PromptLengthChars, &r.ResponseLengthChars, &prompt, &completion,
		&total, &r.MaxTokensRequested, &r.Temperature, &r.Model, &status, &r.Category,
		&r.Topic, &r.SizeCategory, &r.SizeWords, &r.Repetition,
	); err != nil {
		return results.Record{}, fmt.Errorf("scan record: %w", err)
	}

	var err error
	if r.TimestampSend.Time, err = parseNullTime(send); err != nil {
		return results.Record{}, err
	}
	if r.TimestampResponse.Time, err = parseNullTime(resp); err != nil {
		return results.Record{}, err
	}
	if response.Valid {
		r.Response = &response.String
	}
	r.PromptTokens = intFromNull(prompt)
	r.CompletionTokens = intFromNull(completion)
	r.TotalTokens = intFromNull(total)
	if err := r.Status.UnmarshalText([]byte(status)); err != nil {
		return results.Record{}, fmt.Errorf("record status: %w", err)
	}
	return r, nil
}

func formatTime(t time.Time) string {
	return t.Local().Format(results.TimestampLayout)
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func parseNullTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return results.ParseTimestamp(s.String)
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
