package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"ndump/internal/config"
	"ndump/internal/consoles"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch indicates the catalog schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("catalog schema version mismatch")

// ROMInfo describes one catalog entry matched by hash.
type ROMInfo struct {
	Console   consoles.Console
	GameName  string
	ROMName   string
	SizeBytes int64
	CRC       string
	MD5       string
	SHA1      string
}

// Store manages the hash catalog backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "catalog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create catalog schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete the catalog database to rebuild)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// Import replaces a console's catalog entries with the contents of a parsed DAT.
func (s *Store) Import(ctx context.Context, console consoles.Console, dat *DATFile) error {
	if dat == nil {
		return errors.New("dat is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM datfiles WHERE console = ?`, string(console)); err != nil {
		return fmt.Errorf("drop previous datfile: %w", err)
	}

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO datfiles (console, name, version, fetched_at) VALUES (?, ?, ?, ?)`,
		string(console),
		dat.Name,
		dat.Version,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert datfile: %w", err)
	}
	datfileID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("datfile id: %w", err)
	}

	gameStmt, err := tx.PrepareContext(ctx, `INSERT INTO games (datfile_id, name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare game insert: %w", err)
	}
	defer gameStmt.Close()

	romStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO roms (game_id, name, size_bytes, crc, md5, sha1) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare rom insert: %w", err)
	}
	defer romStmt.Close()

	for _, game := range dat.Games {
		gameRes, err := gameStmt.ExecContext(ctx, datfileID, game.Name)
		if err != nil {
			return fmt.Errorf("insert game %q: %w", game.Name, err)
		}
		gameID, err := gameRes.LastInsertId()
		if err != nil {
			return fmt.Errorf("game id: %w", err)
		}
		for _, rom := range game.ROMs {
			if _, err := romStmt.ExecContext(
				ctx,
				gameID,
				CompressROMName(game.Name, rom.Name),
				rom.SizeBytes,
				rom.CRC,
				rom.MD5,
				rom.SHA1,
			); err != nil {
				return fmt.Errorf("insert rom %q: %w", rom.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// Lookup finds a rom by SHA-1 across all imported consoles. Returns nil when
// the hash is not cataloged.
func (s *Store) Lookup(ctx context.Context, sha1 string) (*ROMInfo, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT d.console, g.name, r.name, r.size_bytes, r.crc, r.md5, r.sha1
         FROM roms r
         JOIN games g ON g.id = r.game_id
         JOIN datfiles d ON d.id = g.datfile_id
         WHERE r.sha1 = ?
         LIMIT 1`,
		sha1,
	)
	return scanROMInfo(row)
}

// LookupConsole finds a rom by SHA-1 limited to one console's DAT.
func (s *Store) LookupConsole(ctx context.Context, console consoles.Console, sha1 string) (*ROMInfo, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT d.console, g.name, r.name, r.size_bytes, r.crc, r.md5, r.sha1
         FROM roms r
         JOIN games g ON g.id = r.game_id
         JOIN datfiles d ON d.id = g.datfile_id
         WHERE d.console = ? AND r.sha1 = ?
         LIMIT 1`,
		string(console),
		sha1,
	)
	return scanROMInfo(row)
}

// IsROM reports whether a hash appears anywhere in the catalog.
func (s *Store) IsROM(ctx context.Context, sha1 string) (bool, error) {
	info, err := s.Lookup(ctx, sha1)
	if err != nil {
		return false, err
	}
	return info != nil, nil
}

// FetchedAt reports when a console's DAT was last imported. The zero time
// means the console has never been imported.
func (s *Store) FetchedAt(ctx context.Context, console consoles.Console) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT fetched_at FROM datfiles WHERE console = ?`,
		string(console),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query fetched_at: %w", err)
	}
	fetched, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse fetched_at: %w", err)
	}
	return fetched, nil
}

// Counts returns the number of cataloged games and roms per console.
func (s *Store) Counts(ctx context.Context) (map[consoles.Console]int, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT d.console, COUNT(r.id)
         FROM datfiles d
         LEFT JOIN games g ON g.datfile_id = d.id
         LEFT JOIN roms r ON r.game_id = g.id
         GROUP BY d.console`,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[consoles.Console]int)
	for rows.Next() {
		var console string
		var count int
		if err := rows.Scan(&console, &count); err != nil {
			return nil, err
		}
		counts[consoles.Console(console)] = count
	}
	return counts, rows.Err()
}

func scanROMInfo(row *sql.Row) (*ROMInfo, error) {
	var (
		console  string
		gameName string
		romName  string
		size     int64
		crc      sql.NullString
		md5      sql.NullString
		sha1     string
	)
	err := row.Scan(&console, &gameName, &romName, &size, &crc, &md5, &sha1)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan rom: %w", err)
	}
	return &ROMInfo{
		Console:   consoles.Console(console),
		GameName:  gameName,
		ROMName:   ExpandROMName(gameName, romName),
		SizeBytes: size,
		CRC:       crc.String,
		MD5:       md5.String,
		SHA1:      sha1,
	}, nil
}
