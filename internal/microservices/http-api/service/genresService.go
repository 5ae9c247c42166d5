package service

import (
	"context"
	"errors"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/permission"
	"titlehub/internal/microservices/http-api/repository"

	"gorm.io/gorm"
)

type GenreService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedGenreResponse, error)
	Create(ctx context.Context, actor *models.User, name, slug string) (*dto.GenreResponse, error)
	Delete(ctx context.Context, actor *models.User, slug string) error
}

type genreService struct {
	repo repository.GenreRepository
}

func NewGenreService(repo repository.GenreRepository) GenreService {
	return &genreService{repo: repo}
}

func (s *genreService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedGenreResponse, error) {
	genres, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.GenreResponse, 0, len(genres))
	for _, genre := range genres {
		responses = append(responses, dto.GenreResponse{Name: genre.Name, Slug: genre.Slug})
	}
	return dto.NewPaginatedGenreResponse(responses, int(total), page, pageSize), nil
}

func (s *genreService) Create(ctx context.Context, actor *models.User, name, slug string) (*dto.GenreResponse, error) {
	if err := permission.Decide(actor, permission.ActionCreate, permission.ResourceCatalog, ""); err != nil {
		return nil, err
	}
	if err := validateNameSlug(name, slug); err != nil {
		return nil, err
	}

	genre := &models.Genre{Name: name, Slug: slug}
	if err := s.repo.Create(ctx, genre); err != nil {
		return nil, err
	}
	return &dto.GenreResponse{Name: genre.Name, Slug: genre.Slug}, nil
}

func (s *genreService) Delete(ctx context.Context, actor *models.User, slug string) error {
	if err := permission.Decide(actor, permission.ActionDelete, permission.ResourceCatalog, ""); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGenreNotFound
		}
		return err
	}
	return nil
}
