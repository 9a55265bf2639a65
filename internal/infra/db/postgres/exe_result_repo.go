package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/bryanwahyu/apptest-api/internal/domain/exe"
)

type ExeResultRepository struct {
	db *sql.DB
}

func NewExeResultRepository(db *sql.DB) *ExeResultRepository {
	return &ExeResultRepository{db: db}
}

func (r *ExeResultRepository) Save(ctx context.Context, res *domain.RunResult) error {
	const q = `
INSERT INTO exe_results
(id, test_name, app_path, status, duration_ms, steps_json, errors_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);
`
	steps, _ := json.Marshal(res.Steps)
	errs, _ := json.Marshal(res.ErrorMessages)

	created := res.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		res.ID, res.TestName, res.AppPath, res.Status, res.Duration, steps, errs, created,
	)
	return err
}

func (r *ExeResultRepository) Get(ctx context.Context, id string) (*domain.RunResult, error) {
	const q = `
SELECT id, test_name, app_path, status, duration_ms, steps_json, errors_json, created_at
FROM exe_results
WHERE id = $1 LIMIT 1;
`
	return scanRun(r.db.QueryRowContext(ctx, q, id))
}

func (r *ExeResultRepository) Latest(ctx context.Context, limit int) ([]*domain.RunResult, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, test_name, app_path, status, duration_ms, steps_json, errors_json, created_at
FROM exe_results
ORDER BY created_at DESC, seq DESC
LIMIT $1;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RunResult
	for rows.Next() {
		res, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func scanRun(row rowScanner) (*domain.RunResult, error) {
	var res domain.RunResult
	var steps, errs []byte
	if err := row.Scan(
		&res.ID, &res.TestName, &res.AppPath, &res.Status, &res.Duration, &steps, &errs, &res.CreatedAt,
	); err != nil {
		return nil, err
	}
	_ = json.Unmarshal(steps, &res.Steps)
	_ = json.Unmarshal(errs, &res.ErrorMessages)
	if res.Steps == nil {
		res.Steps = []domain.Step{}
	}
	if res.ErrorMessages == nil {
		res.ErrorMessages = []string{}
	}
	return &res, nil
}
