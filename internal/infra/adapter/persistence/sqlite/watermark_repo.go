package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/infra/db"
	"feedwatch/internal/repository"
)

type WatermarkRepo struct{ db db.Querier }

func NewWatermarkRepo(q db.Querier) repository.WatermarkRepository {
	return &WatermarkRepo{db: q}
}

func (repo *WatermarkRepo) Get(ctx context.Context, feedKey string) (*entity.Watermark, error) {
	const query = `
SELECT feed_key, last_checked_at, last_entry_id, last_entry_title
FROM watermarks
WHERE feed_key = ?
LIMIT 1`
	rows, err := repo.db.QueryContext(ctx, query, feedKey)
	if err != nil {
		return nil, fmt.Errorf("Get: QueryContext: %w: %w", repository.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("Get: %w: %w", repository.ErrStoreUnavailable, err)
		}
		return nil, nil
	}
	wm, err := scan(rows)
	if err != nil {
		return nil, fmt.Errorf("Get: Scan: %w: %w", repository.ErrStoreUnavailable, err)
	}
	return wm, nil
}

func (repo *WatermarkRepo) Put(ctx context.Context, wm *entity.Watermark) error {
	if err := wm.Validate(); err != nil {
		return fmt.Errorf("Put: %w", err)
	}

	const query = `
INSERT INTO watermarks (feed_key, last_checked_at, last_entry_id, last_entry_title, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (feed_key) DO UPDATE SET
    last_checked_at  = excluded.last_checked_at,
    last_entry_id    = excluded.last_entry_id,
    last_entry_title = excluded.last_entry_title,
    updated_at       = CURRENT_TIMESTAMP`
	if _, err := repo.db.ExecContext(ctx, query,
		wm.FeedKey, wm.LastCheckedAt.UTC(), wm.LastEntryID, wm.LastEntryTitle,
	); err != nil {
		return fmt.Errorf("Put: ExecContext: %w: %w", repository.ErrStoreUnavailable, err)
	}
	return nil
}

func (repo *WatermarkRepo) Delete(ctx context.Context, feedKey string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM watermarks WHERE feed_key = ?`, feedKey); err != nil {
		return fmt.Errorf("Delete: ExecContext: %w: %w", repository.ErrStoreUnavailable, err)
	}
	return nil
}

func (repo *WatermarkRepo) List(ctx context.Context) ([]*entity.Watermark, error) {
	const query = `
SELECT
    feed_key,
    last_checked_at,
    last_entry_id,
    last_entry_title
FROM watermarks
ORDER BY feed_key ASC
`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: QueryContext: %w: %w", repository.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Watermark
	for rows.Next() {
		wm, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("List: Scan: %w: %w", repository.ErrStoreUnavailable, err)
		}
		out = append(out, wm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: %w: %w", repository.ErrStoreUnavailable, err)
	}
	return out, nil
}

func scan(rows *sql.Rows) (*entity.Watermark, error) {
	var wm entity.Watermark
	if err := rows.Scan(&wm.FeedKey, &wm.LastCheckedAt, &wm.LastEntryID, &wm.LastEntryTitle); err != nil {
		return nil, err
	}
	wm.LastCheckedAt = wm.LastCheckedAt.UTC()
	return &wm, nil
}
