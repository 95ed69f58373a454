package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/HSMDove/feedpulse/internal/model"
)

type FolderStorage struct {
	db *sqlx.DB
}

func NewFolderStorage(db *sqlx.DB) *FolderStorage {
	return &FolderStorage{db: db}
}

var folderColumns = []string{"id", "name", "auto_fetch", "fetch_interval_minutes", "webhook_url", "created_at"}

// FolderByID returns nil without error when the folder does not exist.
func (s *FolderStorage) FolderByID(ctx context.Context, id int64) (*model.Folder, error) {
	query, args, err := psql.Select(folderColumns...).From("folders").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, err
	}

	var folder model.Folder
	if err := s.db.GetContext(ctx, &folder, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select folder %d: %w", id, err)
	}
	return &folder, nil
}

func (s *FolderStorage) Folders(ctx context.Context) ([]model.Folder, error) {
	query, args, err := psql.Select(folderColumns...).From("folders").OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}

	var folders []model.Folder
	if err := s.db.SelectContext(ctx, &folders, query, args...); err != nil {
		return nil, fmt.Errorf("select folders: %w", err)
	}
	return folders, nil
}

// AutoFetchFolders returns the folders with background refresh enabled.
func (s *FolderStorage) AutoFetchFolders(ctx context.Context) ([]model.Folder, error) {
	query, args, err := psql.Select(folderColumns...).
		From("folders").
		Where("auto_fetch = TRUE").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var folders []model.Folder
	if err := s.db.SelectContext(ctx, &folders, query, args...); err != nil {
		return nil, fmt.Errorf("select auto-fetch folders: %w", err)
	}
	return folders, nil
}

func (s *FolderStorage) Add(ctx context.Context, folder model.Folder) (int64, error) {
	query, args, err := psql.Insert("folders").
		Columns("name", "auto_fetch", "fetch_interval_minutes", "webhook_url").
		Values(folder.Name, folder.AutoFetch, folder.FetchInterval, folder.WebhookURL).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := s.db.GetContext(ctx, &id, query, args...); err != nil {
		return 0, fmt.Errorf("insert folder: %w", err)
	}
	return id, nil
}

func (s *FolderStorage) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("folders").Where("id = ?", id).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete folder %d: %w", id, err)
	}
	return nil
}
