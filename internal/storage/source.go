package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/HSMDove/feedpulse/internal/model"
)

type SourceStorage struct {
	db *sqlx.DB
}

func NewSourceStorage(db *sqlx.DB) *SourceStorage {
	return &SourceStorage{db: db}
}

var sourceColumns = []string{"id", "folder_id", "name", "platform", "url", "active", "last_fetched", "created_at"}

func (s *SourceStorage) SourcesByFolder(ctx context.Context, folderID int64) ([]model.Source, error) {
	query, args, err := psql.Select(sourceColumns...).
		From("sources").
		Where("folder_id = ?", folderID).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var sources []model.Source
	if err := s.db.SelectContext(ctx, &sources, query, args...); err != nil {
		return nil, fmt.Errorf("select sources for folder %d: %w", folderID, err)
	}
	return sources, nil
}

func (s *SourceStorage) Sources(ctx context.Context) ([]model.Source, error) {
	query, args, err := psql.Select(sourceColumns...).From("sources").OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}

	var sources []model.Source
	if err := s.db.SelectContext(ctx, &sources, query, args...); err != nil {
		return nil, fmt.Errorf("select sources: %w", err)
	}
	return sources, nil
}

// UpdateLastFetched stamps the source after a fetch attempt regardless of
// how many items the run produced.
func (s *SourceStorage) UpdateLastFetched(ctx context.Context, id int64, t time.Time) error {
	query, args, err := psql.Update("sources").
		Set("last_fetched", t).
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update last_fetched for source %d: %w", id, err)
	}
	return nil
}

func (s *SourceStorage) Add(ctx context.Context, src model.Source) (int64, error) {
	query, args, err := psql.Insert("sources").
		Columns("folder_id", "name", "platform", "url", "active").
		Values(src.FolderID, src.Name, src.Platform, src.URL, src.Active).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := s.db.GetContext(ctx, &id, query, args...); err != nil {
		return 0, fmt.Errorf("insert source: %w", err)
	}
	return id, nil
}

func (s *SourceStorage) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("sources").Where("id = ?", id).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete source %d: %w", id, err)
	}
	return nil
}
