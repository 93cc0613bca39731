package gallery

import (
	"context"
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Storage interface {
	Upload(ctx context.Context, key string, file multipart.File, contentType string) (string, error)
}

type Service struct {
	repo    Repository
	storage Storage
}

func NewService(repo Repository, storage Storage) *Service {
	return &Service{repo: repo, storage: storage}
}

func (s *Service) List(ctx context.Context) ([]Item, error) {
	return s.repo.List(ctx)
}

// Upload stores the image and creates the gallery entry in one call.
func (s *Service) Upload(ctx context.Context, title, description string, sortOrder int, file *multipart.FileHeader) (*Item, error) {
	if title == "" {
		return nil, errors.New("title is required")
	}
	if file == nil {
		return nil, errors.New("image file is required")
	}

	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	key := "gallery/" + uuid.New().String() + ext

	url, err := s.storage.Upload(ctx, key, f, file.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	item := &Item{
		Title:       title,
		Description: description,
		ImageURL:    url,
		SortOrder:   sortOrder,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, itemID string) error {
	return s.repo.Delete(ctx, itemID)
}
