package ai

import "context"

type Client interface {
	Review(ctx context.Context, reportJSON string) (string, error)
}
