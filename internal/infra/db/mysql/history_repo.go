package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/apptest-api/internal/domain/history"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const historyColumns = `id, user_id, test_type, title, description, status,
       result_id, result_summary, test_target, duration_ms, tags, created_at`

// Create inserts one entry. Entries are immutable, so this is a plain insert
// with no upsert clause.
func (r *HistoryRepository) Create(ctx context.Context, e *domain.HistoryEntry) error {
	const q = `
INSERT INTO test_history
(id, user_id, test_type, title, description, status,
 result_id, result_summary, test_target, duration_ms, tags, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?);
`
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	summary, err := marshalSummary(e.ResultSummary)
	if err != nil {
		return err
	}
	tags, err := marshalTags(e.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, q,
		e.ID, e.UserID, e.TestType, e.Title, e.Description, e.Status,
		nullString(e.ResultID), summary, nullString(e.TestTarget), e.Duration, tags, created,
	)
	return err
}

// List returns one page filtered by status/type/search, newest first. The seq
// column keeps insertion order stable when created_at collides.
func (r *HistoryRepository) List(ctx context.Context, userID string, f domain.ListFilter) (domain.PaginatedEntries, error) {
	where, args := historyFilter(userID, f.Status, f.TestType, f.Search)

	total, err := r.count(ctx, where, args)
	if err != nil {
		return domain.PaginatedEntries{}, fmt.Errorf("counting history: %w", err)
	}

	query := `SELECT ` + historyColumns + `
FROM test_history
` + where + `
ORDER BY created_at DESC, seq ASC
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

// ListByType is the flat type-scoped listing, same ordering contract.
func (r *HistoryRepository) ListByType(ctx context.Context, userID string, t domain.TestType, page, limit int) (domain.TypePage, error) {
	where, args := historyFilter(userID, "", t, "")

	total, err := r.count(ctx, where, args)
	if err != nil {
		return domain.TypePage{}, fmt.Errorf("counting history: %w", err)
	}

	query := `SELECT ` + historyColumns + `
FROM test_history
` + where + `
ORDER BY created_at DESC, seq ASC
LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	items, err := r.query(ctx, query, args)
	if err != nil {
		return domain.TypePage{}, err
	}
	return domain.TypePage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Statistics groups by test type with per-status counts in one pass.
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

// DeleteByID removes one entry owned by userID. A missing row and a row owned
// by someone else are both ErrNotFound.
func (r *HistoryRepository) DeleteByID(ctx context.Context, userID string, id domain.EntryID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM test_history WHERE user_id = ? AND id = ?;`, userID, id)
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
		`DELETE FROM test_history WHERE user_id = ? AND test_type = ?;`, userID, t)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// historyFilter builds the WHERE clause. user_id is always the first
// predicate; there is no unscoped path.
func historyFilter(userID string, status domain.Status, t domain.TestType, search string) (string, []any) {
	where := "WHERE user_id = ?"
	args := []any{userID}

	if status != "" {
		where += " AND status = ?"
		args = append(args, status)
	}
	if t != "" {
		where += " AND test_type = ?"
		args = append(args, t)
	}
	if search != "" {
		pattern := "%" + escapeLikePattern(search) + "%"
		where += " AND (title LIKE ? OR description LIKE ? OR test_target LIKE ?)"
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
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, e)
	}
	if out == nil {
		out = []*domain.HistoryEntry{}
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (*domain.HistoryEntry, error) {
	var e domain.HistoryEntry
	var resultID, target sql.NullString
	var summary, tags []byte
	if err := rows.Scan(
		&e.ID, &e.UserID, &e.TestType, &e.Title, &e.Description, &e.Status,
		&resultID, &summary, &target, &e.Duration, &tags, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.ResultID = resultID.String
	e.TestTarget = target.String
	if len(summary) > 0 {
		var v any
		if err := json.Unmarshal(summary, &v); err == nil {
			e.ResultSummary = v
		}
	}
	e.Tags = []string{}
	if len(tags) > 0 {
		_ = json.Unmarshal(tags, &e.Tags)
	}
	return &e, nil
}

func marshalSummary(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.New("result summary is not serializable")
	}
	return b, nil
}

func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
