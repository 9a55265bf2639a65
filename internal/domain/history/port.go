package history

import "context"

// Repository port (interface untuk persistence). Every operation takes the
// owning userID; repositories must never expose entries across users.
type Repository interface {
	Create(ctx context.Context, e *HistoryEntry) error
	List(ctx context.Context, userID string, f ListFilter) (PaginatedEntries, error)
	ListByType(ctx context.Context, userID string, t TestType, page, limit int) (TypePage, error)
	Statistics(ctx context.Context, userID string) (*Statistics, error)
	DeleteByID(ctx context.Context, userID string, id EntryID) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	DeleteByType(ctx context.Context, userID string, t TestType) (int64, error)
}

// Statistics is one aggregate pass over a user's history grouped by test type.
type Statistics struct {
	Total      int64                      `json:"total"`
	ByTestType map[TestType]*StatusCounts `json:"byTestType"`
}

// StatusCounts value object
type StatusCounts struct {
	Total   int64 `json:"total"`
	Success int64 `json:"success"`
	Error   int64 `json:"error"`
	Warning int64 `json:"warning"`
}
