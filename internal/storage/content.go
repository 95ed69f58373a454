package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/HSMDove/feedpulse/internal/model"
)

type ContentStorage struct {
	db *sqlx.DB
}

func NewContentStorage(db *sqlx.DB) *ContentStorage {
	return &ContentStorage{db: db}
}

var contentColumns = []string{
	"id", "folder_id", "source_id", "title", "summary", "link", "image_url",
	"published_at", "fetched_at", "translation", "sentiment", "notified", "created_at",
}

// CreateIfNotExists is the dedup-on-write gate: it inserts the content
// unless a record with the same (source_id, link) already exists, in which
// case it returns nil without error. The same link under a different source
// is a distinct record by design.
func (s *ContentStorage) CreateIfNotExists(ctx context.Context, c model.Content) (*model.Content, error) {
	query, args, err := psql.Insert("contents").
		Columns("folder_id", "source_id", "title", "summary", "link", "image_url", "published_at", "fetched_at").
		Values(c.FolderID, c.SourceID, c.Title, c.Summary, c.Link, c.ImageURL, c.Published, c.FetchedAt).
		Suffix("ON CONFLICT (source_id, link) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return nil, err
	}

	if err := s.db.GetContext(ctx, &c.ID, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict: the record already exists.
			return nil, nil
		}
		return nil, fmt.Errorf("insert content: %w", err)
	}
	return &c, nil
}

// ContentBySourceAndLink returns nil without error when no record matches.
func (s *ContentStorage) ContentBySourceAndLink(ctx context.Context, sourceID int64, link string) (*model.Content, error) {
	query, args, err := psql.Select(contentColumns...).
		From("contents").
		Where(sq.Eq{"source_id": sourceID, "link": link}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var content model.Content
	if err := s.db.GetContext(ctx, &content, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select content: %w", err)
	}
	return &content, nil
}

func (s *ContentStorage) ContentsByIDs(ctx context.Context, ids []int64) ([]model.Content, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := psql.Select(contentColumns...).
		From("contents").
		Where(sq.Eq{"id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var contents []model.Content
	if err := s.db.SelectContext(ctx, &contents, query, args...); err != nil {
		return nil, fmt.Errorf("select contents by ids: %w", err)
	}
	return contents, nil
}

// UpdateEnrichment attaches the AI-written fields after ingestion. The
// ingestion engine itself never mutates content past creation.
func (s *ContentStorage) UpdateEnrichment(ctx context.Context, id int64, summary, translation, sentiment string) error {
	query, args, err := psql.Update("contents").
		Set("summary", summary).
		Set("translation", translation).
		Set("sentiment", sentiment).
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update enrichment for content %d: %w", id, err)
	}
	return nil
}

func (s *ContentStorage) MarkNotified(ctx context.Context, id int64) error {
	query, args, err := psql.Update("contents").
		Set("notified", true).
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark content %d notified: %w", id, err)
	}
	return nil
}
