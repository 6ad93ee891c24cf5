package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS conversion_runs (
	id             UUID PRIMARY KEY,
	mapping        TEXT NOT NULL,
	source_name    TEXT,
	target_name    TEXT,
	status         TEXT NOT NULL,
	rows_processed BIGINT NOT NULL DEFAULT 0,
	rows_saved     BIGINT NOT NULL DEFAULT 0,
	rows_skipped   BIGINT NOT NULL DEFAULT 0,
	bytes_read     BIGINT NOT NULL DEFAULT 0,
	error_code     TEXT,
	error_message  TEXT,
	ip_address     TEXT,
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS conversion_runs_started_at_idx ON conversion_runs (started_at DESC);
CREATE INDEX IF NOT EXISTS conversion_runs_mapping_idx ON conversion_runs (mapping);
`

const runColumns = `id, mapping, source_name, target_name, status,
	rows_processed, rows_saved, rows_skipped, bytes_read,
	error_code, error_message, ip_address, started_at, finished_at`

// PostgresStore keeps runs in the conversion_runs table.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore wraps db. Call EnsureSchema once before first use.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the conversion_runs table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create conversion_runs: %w", err)
	}
	return nil
}

// Record inserts run. Recording the same id twice overwrites the counters
// and outcome.
func (s *PostgresStore) Record(ctx context.Context, run Run) error {
	query := `INSERT INTO conversion_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			rows_processed = EXCLUDED.rows_processed,
			rows_saved = EXCLUDED.rows_saved,
			rows_skipped = EXCLUDED.rows_skipped,
			bytes_read = EXCLUDED.bytes_read,
			error_code = EXCLUDED.error_code,
			error_message = EXCLUDED.error_message,
			finished_at = EXCLUDED.finished_at`

	_, err := s.db.Exec(ctx, query,
		toPgUUID(run.ID),
		run.Mapping,
		toPgText(run.SourceName),
		toPgText(run.TargetName),
		string(run.Status),
		int64(run.Processed),
		int64(run.Saved),
		int64(run.Skipped),
		run.BytesRead,
		toPgText(run.ErrorCode),
		toPgText(run.ErrorMessage),
		toPgText(run.IPAddress),
		toPgTimestamptz(run.StartedAt),
		toPgTimestamptz(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// Get returns the run with id, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.db.QueryRow(ctx, `SELECT `+runColumns+` FROM conversion_runs WHERE id = $1`, toPgUUID(id))
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// List returns matching runs, newest first.
func (s *PostgresStore) List(ctx context.Context, opts ListOptions) ([]Run, error) {
	wb := newWhereBuilder()
	wb.add("mapping", opts.Mapping)
	wb.add("status", string(opts.Status))
	where, args := wb.build()

	query := fmt.Sprintf(`SELECT %s FROM conversion_runs%s ORDER BY started_at DESC LIMIT $%d OFFSET $%d`,
		runColumns, where, wb.nextArg(), wb.nextArg()+1)
	args = append(args, opts.limit(), max(opts.Offset, 0))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// scanRun reads one conversion_runs row in runColumns order.
func scanRun(row pgx.Row) (Run, error) {
	var (
		id           pgtype.UUID
		mapping      string
		sourceName   pgtype.Text
		targetName   pgtype.Text
		status       string
		processed    int64
		saved        int64
		skipped      int64
		bytesRead    int64
		errorCode    pgtype.Text
		errorMessage pgtype.Text
		ipAddress    pgtype.Text
		startedAt    pgtype.Timestamptz
		finishedAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &mapping, &sourceName, &targetName, &status,
		&processed, &saved, &skipped, &bytesRead,
		&errorCode, &errorMessage, &ipAddress, &startedAt, &finishedAt,
	)
	if err != nil {
		return Run{}, err
	}

	return Run{
		ID:           uuid.UUID(id.Bytes),
		Mapping:      mapping,
		SourceName:   sourceName.String,
		TargetName:   targetName.String,
		Status:       Status(status),
		Processed:    int(processed),
		Saved:        int(saved),
		Skipped:      int(skipped),
		BytesRead:    bytesRead,
		ErrorCode:    errorCode.String,
		ErrorMessage: errorMessage.String,
		IPAddress:    ipAddress.String,
		StartedAt:    startedAt.Time,
		FinishedAt:   finishedAt.Time,
	}, nil
}

// whereBuilder assembles a WHERE clause from optional equality filters.
type whereBuilder struct {
	conds []string
	args  []any
}

func newWhereBuilder() *whereBuilder {
	return &whereBuilder{}
}

// add appends "col = $n" unless value is empty.
func (w *whereBuilder) add(col, value string) {
	if value == "" {
		return
	}
	w.args = append(w.args, value)
	w.conds = append(w.conds, fmt.Sprintf("%s = $%d", col, len(w.args)))
}

func (w *whereBuilder) nextArg() int {
	return len(w.args) + 1
}

func (w *whereBuilder) build() (string, []any) {
	if len(w.conds) == 0 {
		return "", w.args
	}
	return " WHERE " + strings.Join(w.conds, " AND "), w.args
}

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func toPgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
