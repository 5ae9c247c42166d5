package service

import (
	"context"
	"errors"
	"fmt"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/permission"
	"titlehub/internal/microservices/http-api/repository"

	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrGenreNotFound    = errors.New("genre not found")
)

type TitleService interface {
	GetAll(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.PaginatedTitleResponse, error)
	GetByID(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, actor *models.User, req *dto.CreateTitleRequest) (*dto.TitleResponse, error)
	Update(ctx context.Context, actor *models.User, id int64, req *dto.UpdateTitleRequest) (*dto.TitleResponse, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
}

type titleService struct {
	titleRepo    repository.TitleRepository
	categoryRepo repository.CategoryRepository
	genreRepo    repository.GenreRepository
}

func NewTitleService(titleRepo repository.TitleRepository, categoryRepo repository.CategoryRepository, genreRepo repository.GenreRepository) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
	}
}

func (s *titleService) GetAll(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.PaginatedTitleResponse, error) {
	titles, total, err := s.titleRepo.GetAll(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TitleResponse, 0, len(titles))
	for _, t := range titles {
		responses = append(responses, *dto.FromModelToTitleResponse(&t))
	}
	return dto.NewPaginatedTitleResponse(responses, int(total), page, pageSize), nil
}

func (s *titleService) GetByID(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	t, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}
	return dto.FromModelToTitleResponse(t), nil
}

// Create adds a catalog title. Admin only; the rating field is derived and
// never accepted from the client (the request carries no such field).
func (s *titleService) Create(ctx context.Context, actor *models.User, req *dto.CreateTitleRequest) (*dto.TitleResponse, error) {
	if err := permission.Decide(actor, permission.ActionCreate, permission.ResourceCatalog, ""); err != nil {
		return nil, err
	}
	if err := models.ValidateYear(req.Year); err != nil {
		return nil, err
	}
	if len(req.Name) > models.MaxNameLength {
		return nil, fmt.Errorf("%w: name exceeds %d characters", models.ErrValidation, models.MaxNameLength)
	}

	t := &models.Title{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
	}

	if req.Category != "" {
		category, err := s.resolveCategory(ctx, req.Category)
		if err != nil {
			return nil, err
		}
		t.CategoryID = &category.ID
	}
	genres, err := s.resolveGenres(ctx, req.Genres)
	if err != nil {
		return nil, err
	}
	t.Genres = genres

	if err := s.titleRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	t, err = s.titleRepo.GetByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToTitleResponse(t), nil
}

func (s *titleService) Update(ctx context.Context, actor *models.User, id int64, req *dto.UpdateTitleRequest) (*dto.TitleResponse, error) {
	if err := permission.Decide(actor, permission.ActionUpdate, permission.ResourceCatalog, ""); err != nil {
		return nil, err
	}

	t, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		if len(*req.Name) > models.MaxNameLength {
			return nil, fmt.Errorf("%w: name exceeds %d characters", models.ErrValidation, models.MaxNameLength)
		}
		t.Name = *req.Name
	}
	if req.Year != nil {
		if err := models.ValidateYear(*req.Year); err != nil {
			return nil, err
		}
		t.Year = *req.Year
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.Category != nil {
		category, err := s.resolveCategory(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
		t.CategoryID = &category.ID
	}
	if req.Genres != nil {
		genres, err := s.resolveGenres(ctx, req.Genres)
		if err != nil {
			return nil, err
		}
		t.Genres = genres
	}

	if err := s.titleRepo.Update(ctx, t); err != nil {
		return nil, err
	}

	t, err = s.titleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToTitleResponse(t), nil
}

// Delete removes a title with its reviews and their comments.
func (s *titleService) Delete(ctx context.Context, actor *models.User, id int64) error {
	if err := permission.Decide(actor, permission.ActionDelete, permission.ResourceCatalog, ""); err != nil {
		return err
	}

	if err := s.titleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTitleNotFound
		}
		return err
	}
	return nil
}

// Unknown slugs on a title write are a validation failure (400), not a 404:
// the missing resource is referenced by the payload, not addressed by the URL.
func (s *titleService) resolveCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown category slug %q", models.ErrValidation, slug)
		}
		return nil, err
	}
	return category, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	genres, err := s.genreRepo.GetBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(slugs) {
		return nil, fmt.Errorf("%w: unknown genre slug in %v", models.ErrValidation, slugs)
	}
	return genres, nil
}
