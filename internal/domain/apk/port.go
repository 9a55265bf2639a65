package apk

import "context"

// Parser port (interface untuk manifest extraction)
type Parser interface {
	Parse(path string) (*Manifest, error)
}

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, r *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	Latest(ctx context.Context, limit int) ([]*Report, error)
}

// ArtifactStore port (interface untuk penyimpanan artefak)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	UploadAndCleanup(ctx context.Context, localPath, key string) (string, error)
}
