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

type CategoryService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedCategoryResponse, error)
	Create(ctx context.Context, actor *models.User, name, slug string) (*dto.CategoryResponse, error)
	Delete(ctx context.Context, actor *models.User, slug string) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedCategoryResponse, error) {
	categories, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, dto.CategoryResponse{Name: category.Name, Slug: category.Slug})
	}
	return dto.NewPaginatedCategoryResponse(responses, int(total), page, pageSize), nil
}

func (s *categoryService) Create(ctx context.Context, actor *models.User, name, slug string) (*dto.CategoryResponse, error) {
	if err := permission.Decide(actor, permission.ActionCreate, permission.ResourceCatalog, ""); err != nil {
		return nil, err
	}
	if err := validateNameSlug(name, slug); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name, Slug: slug}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return &dto.CategoryResponse{Name: category.Name, Slug: category.Slug}, nil
}

func (s *categoryService) Delete(ctx context.Context, actor *models.User, slug string) error {
	if err := permission.Decide(actor, permission.ActionDelete, permission.ResourceCatalog, ""); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func validateNameSlug(name, slug string) error {
	if name == "" || len(name) > models.MaxNameLength {
		return fmt.Errorf("%w: name must be 1..%d characters", models.ErrValidation, models.MaxNameLength)
	}
	if slug == "" || len(slug) > models.MaxSlugLength {
		return fmt.Errorf("%w: slug must be 1..%d characters", models.ErrValidation, models.MaxSlugLength)
	}
	return nil
}
