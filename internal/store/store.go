package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
)

// ErrNotFound is returned when a run id has no row.
var ErrNotFound = errors.New("run not found")

// Run is the persisted record of one broadcast attempt, from request to
// published artifact or failure.
type Run struct {
	RunID           string
	StationID       string
	Profile         string
	Daypart         string
	TargetHour      string
	Status          broadcast.Status
	ErrorCode       string
	ErrorMessage    string
	ItemCount       int
	SegmentCount    int
	WordCount       int
	QualityScore    float64
	Script          []broadcast.ScriptSegment
	AudioPath       string
	CoverPath       string
	ManifestPath    string
	DurationSeconds float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RunEvent is one timeline entry inside a run.
type RunEvent struct {
	ID        int64
	RunID     string
	Stage     string
	Detail    string
	CreatedAt time.Time
}

// ListFilter narrows ListRuns output. Zero values mean no filter.
type ListFilter struct {
	StationID string
	Status    string
	Limit     int
	Offset    int
}

// Store keeps run history in SQLite.
type Store struct {
	db    *sql.DB
	cfg   config.StoreConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the run store according to config.
func Open(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.VacuumOnStart {
		if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
			log.Warn("run store vacuum failed", slog.String("error", err.Error()))
		}
	}

	if err := s.Prune(ctx); err != nil {
		log.Warn("run store prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    station_id TEXT NOT NULL,
    profile TEXT,
    daypart TEXT,
    target_hour TEXT NOT NULL,
    status TEXT NOT NULL,
    error_code TEXT,
    error_message TEXT,
    item_count INTEGER NOT NULL DEFAULT 0,
    segment_count INTEGER NOT NULL DEFAULT 0,
    word_count INTEGER NOT NULL DEFAULT 0,
    quality_score REAL NOT NULL DEFAULT 0,
    script BLOB,
    audio_path TEXT,
    cover_path TEXT,
    manifest_path TEXT,
    duration_seconds REAL NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_station_created ON runs(station_id, created_at);
CREATE TABLE IF NOT EXISTS run_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    stage TEXT NOT NULL,
    detail TEXT,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY(run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_run_events_run_created ON run_events(run_id, created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateRun inserts the initial pending row for a run.
func (s *Store) CreateRun(ctx context.Context, run Run) error {
	now := s.clock().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	if run.Status == "" {
		run.Status = broadcast.StatusPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(run_id, station_id, profile, daypart, target_hour, status, created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.StationID, run.Profile, run.Daypart, run.TargetHour, string(run.Status), run.CreatedAt, now)
	return err
}

// SetStatus advances a run through the pipeline states.
func (s *Store) SetStatus(ctx context.Context, runID string, status broadcast.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE run_id = ?`,
		string(status), s.clock().UTC(), runID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetScript records the generated script and its counts.
func (s *Store) SetScript(ctx context.Context, runID string, script []broadcast.ScriptSegment, itemCount int) error {
	payload, err := json.Marshal(script)
	if err != nil {
		return fmt.Errorf("marshal script: %w", err)
	}
	words := 0
	for _, seg := range script {
		words += len(strings.Fields(seg.Text))
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET script = ?, segment_count = ?, item_count = ?, word_count = ?,
		 status = ?, updated_at = ? WHERE run_id = ?`,
		payload, len(script), itemCount, words,
		string(broadcast.StatusGenerated), s.clock().UTC(), runID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CompleteRun stores the published artifact for a run.
func (s *Store) CompleteRun(ctx context.Context, runID string, artifact broadcast.Artifact, quality float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, audio_path = ?, cover_path = ?, manifest_path = ?,
		 duration_seconds = ?, quality_score = ?, updated_at = ? WHERE run_id = ?`,
		string(broadcast.StatusPublished), artifact.AudioPath, artifact.CoverPath, artifact.ManifestPath,
		artifact.TotalDurationSeconds, quality, s.clock().UTC(), runID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// FailRun marks a run failed with its error classification.
func (s *Store) FailRun(ctx context.Context, runID, code, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_code = ?, error_message = ?, updated_at = ? WHERE run_id = ?`,
		string(broadcast.StatusFailed), code, message, s.clock().UTC(), runID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetRun loads one run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return run, err
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, filter ListFilter) ([]Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := selectRuns
	var conds []string
	var args []any
	if filter.StationID != "" {
		conds = append(conds, "station_id = ?")
		args = append(args, filter.StationID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AppendEvent writes one timeline entry for a run.
func (s *Store) AppendEvent(ctx context.Context, evt RunEvent) error {
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_events(run_id, stage, detail, created_at) VALUES(?, ?, ?, ?)`,
		evt.RunID, evt.Stage, evt.Detail, evt.CreatedAt)
	return err
}

// ListRunEvents retrieves up to limit events for a run ordered ascending by time.
func (s *Store) ListRunEvents(ctx context.Context, runID string, limit int) ([]RunEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, stage, detail, created_at
		 FROM run_events WHERE run_id = ? ORDER BY created_at ASC, id ASC LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []RunEvent
	for rows.Next() {
		var e RunEvent
		var created string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Stage, &e.Detail, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTime(created)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Prune applies retention: drop runs older than the configured window, then
// cap the table at max_runs newest rows. Events cascade with their run.
func (s *Store) Prune(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour)
		if _, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
	}
	if s.cfg.MaxRuns > 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id IN (
			SELECT run_id FROM runs ORDER BY created_at DESC LIMIT -1 OFFSET ?
		)`, s.cfg.MaxRuns)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

const selectRuns = `SELECT run_id, station_id, profile, daypart, target_hour, status,
 error_code, error_message, item_count, segment_count, word_count, quality_score,
 script, audio_path, cover_path, manifest_path, duration_seconds, created_at, updated_at
 FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var status string
	var errCode, errMsg, audio, cover, manifest sql.NullString
	var script []byte
	var created, updated string
	err := row.Scan(&r.RunID, &r.StationID, &r.Profile, &r.Daypart, &r.TargetHour, &status,
		&errCode, &errMsg, &r.ItemCount, &r.SegmentCount, &r.WordCount, &r.QualityScore,
		&script, &audio, &cover, &manifest, &r.DurationSeconds, &created, &updated)
	if err != nil {
		return Run{}, err
	}
	r.Status = broadcast.Status(status)
	r.ErrorCode = errCode.String
	r.ErrorMessage = errMsg.String
	r.AudioPath = audio.String
	r.CoverPath = cover.String
	r.ManifestPath = manifest.String
	if len(script) > 0 {
		if err := json.Unmarshal(script, &r.Script); err != nil {
			return Run{}, fmt.Errorf("decode script for run %s: %w", r.RunID, err)
		}
	}
	r.CreatedAt = parseTime(created)
	r.UpdatedAt = parseTime(updated)
	return r, nil
}

func parseTime(s string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts
	}
	return time.Time{}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
