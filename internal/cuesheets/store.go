package cuesheets

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"ndump/internal/config"
	"ndump/internal/consoles"
)

const cueSchema = `
CREATE TABLE IF NOT EXISTS cue_bundles (
    console TEXT PRIMARY KEY,
    fetched_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cues (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    console TEXT NOT NULL,
    game_name TEXT NOT NULL,
    sha1 TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cues_sha1 ON cues (sha1);
`

// Match is a known-good cuesheet matched by neutralized hash.
type Match struct {
	Console  consoles.Console
	GameName string
}

// Store keeps neutralized cuesheet hashes from Redump cue bundles.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the cuesheet database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	dbPath := filepath.Join(cfg.Paths.DataDir, "cuesheets.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cuesheet db: %w", err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout = 5000"} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(cueSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cuesheet schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ImportBundle replaces a console's cuesheets with the given set. Each entry
// maps a game name to the raw cuesheet text, which is neutralized before
// hashing.
func (s *Store) ImportBundle(ctx context.Context, console consoles.Console, cues map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cue import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cues WHERE console = ?`, string(console)); err != nil {
		return fmt.Errorf("drop previous cues: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cues (console, game_name, sha1) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cue insert: %w", err)
	}
	defer stmt.Close()

	for gameName, cueText := range cues {
		if _, err := stmt.ExecContext(ctx, string(console), gameName, SHA1(cueText)); err != nil {
			return fmt.Errorf("insert cue %q: %w", gameName, err)
		}
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO cue_bundles (console, fetched_at) VALUES (?, ?)
         ON CONFLICT (console) DO UPDATE SET fetched_at = excluded.fetched_at`,
		string(console),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("record cue bundle: %w", err)
	}
	return tx.Commit()
}

// MatchCue neutralizes a candidate cuesheet and looks it up. Returns nil when
// the sheet does not correspond to a known dump.
func (s *Store) MatchCue(ctx context.Context, cueText string) (*Match, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT console, game_name FROM cues WHERE sha1 = ? LIMIT 1`,
		SHA1(cueText),
	)
	var console, gameName string
	err := row.Scan(&console, &gameName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("match cue: %w", err)
	}
	return &Match{Console: consoles.Console(console), GameName: gameName}, nil
}

// FetchedAt reports when a console's cue bundle was last imported.
func (s *Store) FetchedAt(ctx context.Context, console consoles.Console) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT fetched_at FROM cue_bundles WHERE console = ?`,
		string(console),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query cue fetched_at: %w", err)
	}
	return time.Parse(time.RFC3339Nano, raw)
}

const defaultRedumpBaseURL = "http://redump.org"

// BundleClient downloads Redump cuesheet bundles, which are zips of one .cue
// per game.
type BundleClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewBundleClient returns a client with production defaults.
func NewBundleClient() *BundleClient {
	return &BundleClient{
		BaseURL:    defaultRedumpBaseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// FetchBundle downloads a console's cuesheet bundle and returns game name to
// cue text.
func (c *BundleClient) FetchBundle(ctx context.Context, console consoles.Console) (map[string]string, error) {
	slug, ok := console.RedumpCueSlug()
	if !ok {
		return nil, fmt.Errorf("console %s has no redump cuesheet bundle", console)
	}

	url := fmt.Sprintf("%s/cues/%s/", c.BaseURL, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build cue bundle request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read cue bundle: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("open cue bundle zip: %w", err)
	}

	cues := make(map[string]string, len(zr.File))
	for _, file := range zr.File {
		if !strings.HasSuffix(strings.ToLower(file.Name), ".cue") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open cue %s: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read cue %s: %w", file.Name, err)
		}
		gameName := strings.TrimSuffix(filepath.Base(file.Name), filepath.Ext(file.Name))
		cues[gameName] = string(data)
	}
	if len(cues) == 0 {
		return nil, fmt.Errorf("cue bundle for %s contains no cuesheets", console)
	}
	return cues, nil
}
