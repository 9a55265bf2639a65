package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/bryanwahyu/apptest-api/internal/domain/apk"
)

type ApkReportRepository struct {
	db *sql.DB
}

func NewApkReportRepository(db *sql.DB) *ApkReportRepository {
	return &ApkReportRepository{db: db}
}

func (r *ApkReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO apk_reports
(id, app_name, package_name, version_name, version_code, apk_size_mb,
 scores_json, performance_json, security_json, metadata_json, recommendations_json,
 artifact_url, status, created_at_ns)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?);
`
	scores, _ := json.Marshal(rep.Scores)
	perf, _ := json.Marshal(rep.Performance)
	sec, _ := json.Marshal(rep.Security)
	meta, _ := json.Marshal(rep.Metadata)
	recs, _ := json.Marshal(rep.Recommendations)

	created := rep.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		rep.ID, rep.AppName, rep.PackageName, rep.VersionName, rep.VersionCode, rep.ApkSizeMB,
		string(scores), string(perf), string(sec), string(meta), string(recs),
		rep.ArtifactURL, rep.Status, created.UnixNano(),
	)
	return err
}

func (r *ApkReportRepository) Get(ctx context.Context, id string) (*domain.Report, error) {
	const q = `
SELECT id, app_name, package_name, version_name, version_code, apk_size_mb,
       scores_json, performance_json, security_json, metadata_json, recommendations_json,
       artifact_url, status, created_at_ns
FROM apk_reports
WHERE id = ? LIMIT 1;
`
	return scanReport(r.db.QueryRowContext(ctx, q, id))
}

func (r *ApkReportRepository) Latest(ctx context.Context, limit int) ([]*domain.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, app_name, package_name, version_name, version_code, apk_size_mb,
       scores_json, performance_json, security_json, metadata_json, recommendations_json,
       artifact_url, status, created_at_ns
FROM apk_reports
ORDER BY created_at_ns DESC, rowid DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*domain.Report, error) {
	var rep domain.Report
	var scores, perf, sec, meta, recs []byte
	var artifactURL sql.NullString
	var createdNS int64
	if err := row.Scan(
		&rep.ID, &rep.AppName, &rep.PackageName, &rep.VersionName, &rep.VersionCode, &rep.ApkSizeMB,
		&scores, &perf, &sec, &meta, &recs,
		&artifactURL, &rep.Status, &createdNS,
	); err != nil {
		return nil, err
	}
	rep.ArtifactURL = artifactURL.String
	rep.CreatedAt = time.Unix(0, createdNS).UTC()
	_ = json.Unmarshal(scores, &rep.Scores)
	_ = json.Unmarshal(perf, &rep.Performance)
	_ = json.Unmarshal(sec, &rep.Security)
	_ = json.Unmarshal(meta, &rep.Metadata)
	_ = json.Unmarshal(recs, &rep.Recommendations)
	return &rep, nil
}
