package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/imageloader/internal/model"
)

// DBFileName is the name of the history database inside its directory.
const DBFileName = "history.db"

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Store is the SQLite database recording past runs and their images.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dir.
// With CreateIfNotExists unset, a missing database is an error.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, DBFileName)

	mode := "rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		mode = "rwc"
	} else if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		}
		return nil, fmt.Errorf("failed to check history database path: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?mode="+mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page_url TEXT NOT NULL,
		dest_dir TEXT NOT NULL,
		page_hash TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		found INTEGER NOT NULL DEFAULT 0,
		resolved INTEGER NOT NULL DEFAULT 0,
		downloaded INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_page_url ON runs(page_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		filename TEXT NOT NULL,
		source TEXT NOT NULL,
		url TEXT,
		resolved INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		error_kind TEXT NOT NULL,
		error TEXT,
		bytes INTEGER,
		digest TEXT,
		metadata TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_images_run ON images(run_id);
	CREATE INDEX IF NOT EXISTS idx_images_digest ON images(digest);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores rec and its images in one transaction and returns the new run ID.
func (s *Store) SaveRun(ctx context.Context, rec *model.RunRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (page_url, dest_dir, page_hash, started_at, finished_at, found, resolved, downloaded, failed, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.PageURL,
		rec.DestDir,
		rec.PageHash,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.FinishedAt.Format(time.RFC3339Nano),
		rec.Found,
		rec.Resolved,
		rec.Downloaded,
		rec.Failed,
		rec.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for i, img := range rec.Images {
		var metaJSON string
		if img.Metadata != nil {
			b, err := json.Marshal(img.Metadata)
			if err != nil {
				return 0, fmt.Errorf("failed to serialize metadata: %w", err)
			}
			metaJSON = string(b)
		}

		if _, err := tx.ExecContext(ctx, `
		INSERT INTO images (run_id, position, filename, source, url, resolved, succeeded, error_kind, error, bytes, digest, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID,
			i,
			img.Filename,
			img.Source,
			img.URL,
			img.Resolved,
			img.Succeeded,
			img.Kind.String(),
			img.Error,
			img.Bytes,
			img.Digest,
			metaJSON,
		); err != nil {
			return 0, fmt.Errorf("failed to insert image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	rec.ID = runID
	return runID, nil
}

const runColumns = `id, page_url, dest_dir, COALESCE(page_hash, ''), started_at, finished_at,
	found, resolved, downloaded, failed, COALESCE(error, '')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.RunRecord, error) {
	var rec model.RunRecord
	var started, finished string
	if err := row.Scan(
		&rec.ID,
		&rec.PageURL,
		&rec.DestDir,
		&rec.PageHash,
		&started,
		&finished,
		&rec.Found,
		&rec.Resolved,
		&rec.Downloaded,
		&rec.Failed,
		&rec.Error,
	); err != nil {
		return nil, err
	}
	rec.StartedAt = parseTimestamp(started)
	rec.FinishedAt = parseTimestamp(finished)
	return &rec, nil
}

// ListRuns returns up to limit runs, newest first, without their images.
// A limit of zero or less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*model.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*model.RunRecord, 0)
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// GetRun returns the run with the given ID including its images in the
// order they were recorded.
func (s *Store) GetRun(ctx context.Context, id int64) (*model.RunRecord, error) {
	rec, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT filename, source, COALESCE(url, ''), resolved, succeeded, error_kind,
		COALESCE(error, ''), COALESCE(bytes, 0), COALESCE(digest, ''), COALESCE(metadata, '')
	FROM images WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	rec.Images = make([]model.ImageRecord, 0)
	for rows.Next() {
		var img model.ImageRecord
		var kind, metaJSON string
		if err := rows.Scan(
			&img.Filename,
			&img.Source,
			&img.URL,
			&img.Resolved,
			&img.Succeeded,
			&kind,
			&img.Error,
			&img.Bytes,
			&img.Digest,
			&metaJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		img.Kind = model.ParseErrorKind(kind)
		if metaJSON != "" {
			var md model.ImageMetadata
			if err := json.Unmarshal([]byte(metaJSON), &md); err != nil {
				return nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
			img.Metadata = &md
		}
		rec.Images = append(rec.Images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}

	return rec, nil
}

// timestampFormats are tried in order by parseTimestamp.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when s matches none of timestampFormats.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
