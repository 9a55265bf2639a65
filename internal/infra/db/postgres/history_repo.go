package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	domain "github.com/bryanwahyu/apptest-api/internal/domain/history"
)

// HistoryRepository is the PostgreSQL twin of the MySQL repository, for
// deployments that already run Postgres.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Connect opens a pooled connection and verifies it.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

const historyColumns = `id, user_id, test_type, title, description, status,
       result_id, result_summary, test_target, duration_ms, tags, created_at`

func (r *HistoryRepository) Create(ctx context.Context, e *domain.HistoryEntry) error {
	const q = `
INSERT INTO test_history
(id, user_id, test_type, title, description, status,
 result_id, result_summary, test_target, duration_ms, tags, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);
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
		summary = b
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.UserID, e.TestType, e.Title, e.Description, e.Status,
		nullString(e.ResultID), summary, nullString(e.TestTarget), e.Duration, tagsJSON, created,
	)
	return err
}

func (r *HistoryRepository) List(ctx context.Context, userID string, f domain.ListFilter) (domain.PaginatedEntries, error) {
	where, args := historyFilter(userID, f.Status, f.TestType, f.Search)

	total, err := r.count(ctx, where, args)
	if err != nil {
		return domain.PaginatedEntries{}, fmt.Errorf("counting history: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s
FROM test_history
%s
ORDER BY created_at DESC, seq ASC
LIMIT $%d OFFSET $%d`, historyColumns, where, len(args)+1, len(args)+2)
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

	query := fmt.Sprintf(`SELECT %s
FROM test_history
%s
ORDER BY created_at DESC, seq ASC
LIMIT $%d OFFSET $%d`, historyColumns, where, len(args)+1, len(args)+2)
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
WHERE user_id = $1
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
		`DELETE FROM test_history WHERE user_id = $1 AND id = $2;`, userID, id)
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
		`DELETE FROM test_history WHERE user_id = $1;`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *HistoryRepository) DeleteByType(ctx context.Context, userID string, t domain.TestType) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM test_history WHERE user_id = $1 AND test_type = $2;`, userID, t)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func historyFilter(userID string, status domain.Status, t domain.TestType, search string) (string, []any) {
	where := "WHERE user_id = $1"
	args := []any{userID}

	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if t != "" {
		args = append(args, t)
		where += fmt.Sprintf(" AND test_type = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+escapeLikePattern(search)+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d OR test_target ILIKE $%d)", n, n, n)
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
		var resultID, target sql.NullString
		var summary, tags []byte
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.TestType, &e.Title, &e.Description, &e.Status,
			&resultID, &summary, &target, &e.Duration, &tags, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.ResultID = resultID.String
		e.TestTarget = target.String
		if len(summary) > 0 {
			var v any
			if json.Unmarshal(summary, &v) == nil {
				e.ResultSummary = v
			}
		}
		e.Tags = []string{}
		if len(tags) > 0 {
			_ = json.Unmarshal(tags, &e.Tags)
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
