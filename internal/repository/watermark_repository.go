package repository

import (
	"context"
	"errors"

	"feedwatch/internal/domain/entity"
)

// ErrStoreUnavailable marks a storage transport or backend failure.
// A missing watermark is never reported through it.
var ErrStoreUnavailable = errors.New("watermark store unavailable")

// WatermarkRepository persists one watermark per feed key.
type WatermarkRepository interface {
	// Get returns nil, nil when no watermark exists for feedKey.
	Get(ctx context.Context, feedKey string) (*entity.Watermark, error)
	// Put creates or replaces the watermark for wm.FeedKey. Replaying the
	// same watermark has no further effect.
	Put(ctx context.Context, wm *entity.Watermark) error
	Delete(ctx context.Context, feedKey string) error
	List(ctx context.Context) ([]*entity.Watermark, error)
}
