package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	domain "github.com/bryanwahyu/apptest-api/internal/domain/history"
)

// HistoryRepository is the embedded backend: a pure-Go SQLite file (or
// in-memory database) for single-node deployments and tests.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Connect opens the sqlite database at path (":memory:" works) and creates
// the schema when missing. rowid doubles as the insertion-order tiebreak.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// the modernc driver is not safe for concurrent writes on one connection pool >1 without WAL
	db.SetMaxOpenConns(1)

	const schema = `
CREATE TABLE IF NOT EXISTS test_history (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	test_type     TEXT NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL,
	status        TEXT NOT NULL,
	result_id     TEXT,
	result_summary TEXT,
	test_target   TEXT,
	duration_ms   INTEGER NOT NULL DEFAULT 0,
	tags          TEXT NOT NULL DEFAULT '[]',
	created_at_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_user_created ON test_history (user_id, created_at_ns DESC);
CREATE INDEX IF NOT EXISTS idx_history_user_type ON test_history (user_id, test_type, created_at_ns DESC);

CREATE TABLE IF NOT EXISTS apk_reports (
	id                   TEXT PRIMARY KEY,
	app_name             TEXT NOT NULL,
	package_name         TEXT NOT NULL,
	version_name         TEXT NOT NULL,
	version_code         TEXT NOT NULL,
	apk_size_mb          REAL NOT NULL,
	scores_json          TEXT NOT NULL,
	performance_json     TEXT NOT NULL,
	security_json        TEXT NOT NULL,
	metadata_json        TEXT NOT NULL,
	recommendations_json TEXT NOT NULL,
	artifact_url         TEXT,
	status               TEXT NOT NULL,
	created_at_ns        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS exe_results (
	id            TEXT PRIMARY KEY,
	test_name     TEXT NOT NULL,
	app_path      TEXT NOT NULL,
	status        TEXT NOT NULL,
	duration_ms   INTEGER NOT NULL DEFAULT 0,
	steps_json    TEXT NOT NULL,
	errors_json   TEXT NOT NULL,
	created_at_ns INTEGER NOT NULL
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

const historyColumns = `id, user_id, test_type, title, description, status,
       result_id, result_summary, test_target, duration_ms, tags, created_at_ns`

func (r *HistoryRepository) Create(ctx context.Context, e *domain.HistoryEntry) error {
	const q = `
INSERT INTO test_history
(id, user_id, test_type, title, description, status,
 result_id, result_summary, test_target, duration_ms, tags, created_at_ns)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?);
`
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	var summary any
	if e.ResultSummary != nil {
		b, err := json.Marshal(e.ResultSummary)
		if err != nil {
			return fmt.Errorf("result summary is not serializable: %w", err)
		}
		summary = string(b)
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	_, err := r.db.ExecContext(ctx, q,
		string(e.ID), e.UserID, string(e.TestType), e.Title, e.Description, string(e.Status),
		nullString(e.ResultID), summary, nullString(e.TestTarget), e.Duration, string(tagsJSON), created.UnixNano(),
	)
	return err
}

func (r *HistoryRepository) List(ctx context.Context, userID string, f domain.ListFilter) (domain.PaginatedEntries, error) {
	where, args := historyFilter(userID, f.Status, f.TestType, f.Search)

	total, err := r.count(ctx, where, args)
	if err != nil {
		return domain.PaginatedEntries{}, fmt.Errorf("counting history: %w", err)
	}

	query := `SELECT ` + historyColumns + `
FROM test_history
` + where + `
ORDER BY created_at_ns DESC, rowid ASC
LIMIT ? OFFSET ?`
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	items, err := r.query(ctx, query, args)
	if err != nil {
		return domain.PaginatedEntries{}, err
	}
	return domain.PaginatedEntries{
		Items: items,
		Meta:  domain.NewPageMeta(f.Page, f.Limit, total),
	}, nil
}

func (r *HistoryRepository) ListByType(ctx context.Context, userID string, t domain.TestType, page, limit int) (domain.TypePage, error) {
	where, args := historyFilter(userID, "", t, "")

	total, err := r.count(ctx, where, args)
	if err != nil {
		return domain.TypePage{}, fmt.Errorf("counting history: %w", err)
	}

	query := `SELECT ` + historyColumns + `
FROM test_history
` + where + `
ORDER BY created_at_ns DESC, rowid ASC
LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	items, err := r.query(ctx, query, args)
	if err != nil {
		return domain.TypePage{}, err
	}
	return domain.TypePage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (r *HistoryRepository) Statistics(ctx context.Context, userID string) (*domain.Statistics, error) {
	const q = `
SELECT test_type,
       COUNT(*) AS total,
       SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END) AS success,
       SUM(CASE WHEN status = 'error'   THEN 1 ELSE 0 END) AS error,
       SUM(CASE WHEN status = 'warning' THEN 1 ELSE 0 END) AS warning
FROM test_history
WHERE user_id = ?
GROUP BY test_type;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &domain.Statistics{ByTestType: map[domain.TestType]*domain.StatusCounts{}}
	for rows.Next() {
		var t domain.TestType
		var c domain.StatusCounts
		if err := rows.Scan(&t, &c.Total, &c.Success, &c.Error, &c.Warning); err != nil {
			return nil, err
		}
		stats.ByTestType[t] = &c
		stats.Total += c.Total
	}
	return stats, rows.Err()
}

func (r *HistoryRepository) DeleteByID(ctx context.Context, userID string, id domain.EntryID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM test_history WHERE user_id = ? AND id = ?;`, userID, string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *HistoryRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM test_history WHERE user_id = ?;`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *HistoryRepository) DeleteByType(ctx context.Context, userID string, t domain.TestType) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM test_history WHERE user_id = ? AND test_type = ?;`, userID, string(t))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func historyFilter(userID string, status domain.Status, t domain.TestType, search string) (string, []any) {
	where := "WHERE user_id = ?"
	args := []any{userID}

	if status != "" {
		where += " AND status = ?"
		args = append(args, string(status))
	}
	if t != "" {
		where += " AND test_type = ?"
		args = append(args, string(t))
	}
	if search != "" {
		pattern := "%" + escapeLikePattern(search) + "%"
		where += ` AND (title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR test_target LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern, pattern)
	}
	return where, args
}

func (r *HistoryRepository) count(ctx context.Context, where string, args []any) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM test_history "+where, args...).Scan(&total)
	return total, err
}

func (r *HistoryRepository) query(ctx context.Context, q string, args []any) ([]*domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []*domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var resultID, summary, target sql.NullString
		var tags string
		var createdNS int64
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.TestType, &e.Title, &e.Description, &e.Status,
			&resultID, &summary, &target, &e.Duration, &tags, &createdNS,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.ResultID = resultID.String
		e.TestTarget = target.String
		e.CreatedAt = time.Unix(0, createdNS).UTC()
		if summary.Valid && summary.String != "" {
			var v any
			if json.Unmarshal([]byte(summary.String), &v) == nil {
				e.ResultSummary = v
			}
		}
		e.Tags = []string{}
		if tags != "" {
			_ = json.Unmarshal([]byte(tags), &e.Tags)
		}
		out = append(out, &e)
	}
	if out == nil {
		out = []*domain.HistoryEntry{}
	}
	return out, rows.Err()
}

func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
