package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/athena/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/athena/internal/adapters/driven/vectorblob"
	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// DatabaseFileName is the database file inside the data directory.
const DatabaseFileName = "athena.db"

const metaSchemaVersion = "schema_version"

// Store is a SQLite database exposing the snapshot and ingest state stores.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) <dataDir>/athena.db and runs pending migrations.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFileName)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection serialises writers instead of surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SnapshotStore returns a SnapshotStore backed by this database.
func (s *Store) SnapshotStore() driven.SnapshotStore {
	return &snapshotStore{store: s}
}

// IngestStateStore returns an IngestStateStore backed by this database.
func (s *Store) IngestStateStore() driven.IngestStateStore {
	return &ingestStateStore{store: s}
}

// migrate runs all pending up migrations in version order.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.inTx(context.Background(), func(tx *sql.Tx) error {
			if _, err := tx.Exec(string(content)); err != nil {
				return err
			}
			_, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version)
			return err
		}); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// inTx runs fn in a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ==================== Snapshot Store ====================

type snapshotStore struct {
	store *Store
}

var _ driven.SnapshotStore = (*snapshotStore)(nil)

// Load returns every chunk in insertion order.
func (s *snapshotStore) Load(ctx context.Context) ([]domain.ChunkRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source, page, ord, text, category, role, topic, doc_type, embedding
		FROM chunks ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := []domain.ChunkRecord{}
	for rows.Next() {
		var c domain.ChunkRecord
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Source, &c.Page, &c.Order, &c.Text,
			&c.Category, &c.Role, &c.Topic, &c.DocType, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if c.Embedding, err = vectorblob.Decode(blob); err != nil {
			return nil, fmt.Errorf("decoding chunk %s: %w", c.ID, err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Save replaces all chunks in one transaction.
func (s *snapshotStore) Save(ctx context.Context, chunks []domain.ChunkRecord) error {
	return s.store.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
			return fmt.Errorf("clearing chunks: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (seq, id, source, page, ord, text, category, role, topic, doc_type, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for i, c := range chunks {
			if _, err := stmt.ExecContext(ctx, i+1, c.ID, c.Source, c.Page, c.Order, c.Text,
				c.Category, c.Role, c.Topic, c.DocType, vectorblob.Encode(c.Embedding)); err != nil {
				return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// Delete removes every chunk.
func (s *snapshotStore) Delete(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// ==================== Ingest State Store ====================

type ingestStateStore struct {
	store *Store
}

var _ driven.IngestStateStore = (*ingestStateStore)(nil)

// Load returns the tracked documents. With no stored schema version the
// state is fresh when empty and version 0 otherwise.
func (s *ingestStateStore) Load(ctx context.Context) (*domain.IngestState, error) {
	state := domain.NewIngestState()

	var raw string
	hasVersion := true
	err := s.store.db.QueryRowContext(ctx,
		"SELECT value FROM ingest_meta WHERE key = ?", metaSchemaVersion).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		hasVersion = false
	case err != nil:
		return nil, fmt.Errorf("reading schema version: %w", err)
	default:
		if state.SchemaVersion, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("parsing schema version %q: %w", raw, err)
		}
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT name, hash, status, error, chunks, updated_at FROM ingest_documents
	`)
	if err != nil {
		return nil, fmt.Errorf("querying ingest documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, status, updatedAt string
		var doc domain.DocumentState
		if err := rows.Scan(&name, &doc.Hash, &status, &doc.Error, &doc.Chunks, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning ingest document: %w", err)
		}
		doc.Status = domain.DocumentStatus(status)
		if doc.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("parsing updated_at of %s: %w", name, err)
		}
		state.Documents[name] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !hasVersion && len(state.Documents) > 0 {
		state.SchemaVersion = 0
	}

	return state, nil
}

// Save replaces the tracked documents and schema version in one transaction.
func (s *ingestStateStore) Save(ctx context.Context, state *domain.IngestState) error {
	return s.store.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM ingest_documents"); err != nil {
			return fmt.Errorf("clearing ingest documents: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO ingest_documents (name, hash, status, error, chunks, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for name, doc := range state.Documents {
			if _, err := stmt.ExecContext(ctx, name, doc.Hash, string(doc.Status), doc.Error, doc.Chunks,
				doc.UpdatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
				return fmt.Errorf("inserting ingest document %s: %w", name, err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO ingest_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, metaSchemaVersion, strconv.Itoa(state.SchemaVersion))
		if err != nil {
			return fmt.Errorf("saving schema version: %w", err)
		}
		return nil
	})
}

// Delete removes all tracking.
func (s *ingestStateStore) Delete(ctx context.Context) error {
	return s.store.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM ingest_documents"); err != nil {
			return fmt.Errorf("deleting ingest documents: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM ingest_meta"); err != nil {
			return fmt.Errorf("deleting ingest meta: %w", err)
		}
		return nil
	})
}
