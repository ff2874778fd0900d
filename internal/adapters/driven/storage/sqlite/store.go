package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/brightlyhq/brightly/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/brightlyhq/brightly/internal/core/domain"
	"github.com/brightlyhq/brightly/internal/core/ports/driven"
)

// MaxRetainedSessions is how many persisted sessions survive pruning.
const MaxRetainedSessions = 10

// Store is a unified SQLite-based storage that provides the manifest,
// snapshot and session store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.brightly/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".brightly", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "brightly.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

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

// ManifestStore returns a ManifestStore interface backed by this store.
func (s *Store) ManifestStore() driven.ManifestStore {
	return &manifestStore{store: s}
}

// SnapshotStore returns a SnapshotStore interface backed by this store.
func (s *Store) SnapshotStore() driven.SnapshotStore {
	return &snapshotStore{store: s}
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
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
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
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
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Manifest Store ====================

// manifestStore implements driven.ManifestStore.
type manifestStore struct {
	store *Store
}

var _ driven.ManifestStore = (*manifestStore)(nil)

// Load reads the persisted manifest. Absent rows yield an empty map.
func (s *manifestStore) Load(ctx context.Context) (domain.Manifest, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT path, hash FROM manifest")
	if err != nil {
		return nil, fmt.Errorf("querying manifest: %w", err)
	}
	defer rows.Close()

	manifest := domain.Manifest{}
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("scanning manifest row: %w", err)
		}
		manifest[path] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating manifest rows: %w", err)
	}
	return manifest, nil
}

// Save replaces the whole manifest in one transaction.
func (s *manifestStore) Save(ctx context.Context, m domain.Manifest) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM manifest"); err != nil {
		return fmt.Errorf("clearing manifest: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO manifest (path, hash) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing manifest insert: %w", err)
	}
	defer stmt.Close()

	for path, hash := range m {
		if _, err := stmt.ExecContext(ctx, path, hash); err != nil {
			return fmt.Errorf("saving manifest entry %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ==================== Snapshot Store ====================

// snapshotStore implements driven.SnapshotStore.
type snapshotStore struct {
	store *Store
}

var _ driven.SnapshotStore = (*snapshotStore)(nil)

// Load reads the persisted snapshot.
func (s *snapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT fingerprint, built_at, dimensions, passages, vectors
		FROM snapshots WHERE id = 1
	`)

	var snap domain.Snapshot
	var builtAt time.Time
	var dimensions int
	var passagesJSON string
	var vectorsBlob []byte
	if err := row.Scan(&snap.Fingerprint, &builtAt, &dimensions, &passagesJSON, &vectorsBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSnapshotMissing
		}
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}
	snap.BuiltAt = builtAt

	if err := json.Unmarshal([]byte(passagesJSON), &snap.Passages); err != nil {
		return nil, fmt.Errorf("unmarshaling passages: %w", err)
	}

	if dimensions > 0 {
		flat := bytesToFloat32Slice(vectorsBlob)
		if len(flat) != len(snap.Passages)*dimensions {
			return nil, fmt.Errorf("snapshot vector blob size mismatch: %d floats for %d passages",
				len(flat), len(snap.Passages))
		}
		snap.Vectors = make([][]float32, len(snap.Passages))
		for i := range snap.Vectors {
			snap.Vectors[i] = flat[i*dimensions : (i+1)*dimensions]
		}
	}

	return &snap, nil
}

// Save replaces the persisted snapshot whole.
func (s *snapshotStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	passagesJSON, err := json.Marshal(snap.Passages)
	if err != nil {
		return fmt.Errorf("marshaling passages: %w", err)
	}

	dimensions := 0
	if len(snap.Vectors) > 0 {
		dimensions = len(snap.Vectors[0])
	}
	flat := make([]float32, 0, len(snap.Vectors)*dimensions)
	for i, vec := range snap.Vectors {
		if len(vec) != dimensions {
			return fmt.Errorf("vector %d has dimension %d, want %d", i, len(vec), dimensions)
		}
		flat = append(flat, vec...)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, fingerprint, built_at, dimensions, passages, vectors)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			built_at = excluded.built_at,
			dimensions = excluded.dimensions,
			passages = excluded.passages,
			vectors = excluded.vectors
	`, snap.Fingerprint, snap.BuiltAt, dimensions, string(passagesJSON), float32SliceToBytes(flat))
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// SaveSession writes one session's turns and prunes old sessions.
func (s *sessionStore) SaveSession(ctx context.Context, turns []domain.ConversationTurn) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	sessionID := uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sessions (id, created_at) VALUES (?, ?)",
		sessionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO session_turns (session_id, seq, question, answer) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing turn insert: %w", err)
	}
	defer stmt.Close()

	for i, turn := range turns {
		if _, err := stmt.ExecContext(ctx, sessionID, i, turn.Question, turn.Answer); err != nil {
			return fmt.Errorf("saving turn %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM sessions WHERE id NOT IN (
			SELECT id FROM sessions ORDER BY created_at DESC, id LIMIT ?
		)
	`, MaxRetainedSessions); err != nil {
		return fmt.Errorf("pruning sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// LoadLatest reads the turns of the most recent persisted session.
func (s *sessionStore) LoadLatest(ctx context.Context) ([]domain.ConversationTurn, error) {
	var sessionID string
	row := s.store.db.QueryRowContext(ctx,
		"SELECT id FROM sessions ORDER BY created_at DESC, id LIMIT 1")
	if err := row.Scan(&sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("finding latest session: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT question, answer FROM session_turns WHERE session_id = ? ORDER BY seq",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn
	for rows.Next() {
		var turn domain.ConversationTurn
		if err := rows.Scan(&turn.Question, &turn.Answer); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
