// Package cache stores merged search results per caller session.
package cache

import (
	"context"

	"github.com/vacancy-aggregator/backend/internal/domain"
)

// ResultCache keeps one ordered vacancy list per key. Backend failures are never
// returned: a broken read is a miss and a broken write is a no-op.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]domain.Vacancy, bool)
	Set(ctx context.Context, key string, list []domain.Vacancy)
}
