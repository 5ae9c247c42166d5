package dto

import (
	"titlehub/internal/microservices/http-api/models"
)

// CreateTitleRequest deliberately has no rating field: the rating is derived
// from reviews and never accepted as client input.
type CreateTitleRequest struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        int      `json:"year" binding:"required"`
	Description *string  `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Genres      []string `json:"genres" binding:"required,min=1"`
}

type UpdateTitleRequest struct {
	Name        *string  `json:"name,omitempty" binding:"omitempty,max=256"`
	Year        *int     `json:"year,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Genres      []string `json:"genres,omitempty"`
}

type TitleResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *float64          `json:"rating"`
	Description *string           `json:"description,omitempty"`
	Category    *CategoryResponse `json:"category,omitempty"`
	Genres      []GenreResponse   `json:"genres"`
}

// FromModelToTitleResponse converts a Title model to TitleResponse DTO
func FromModelToTitleResponse(t *models.Title) *TitleResponse {
	resp := &TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genres:      make([]GenreResponse, 0, len(t.Genres)),
	}
	if t.Category != nil {
		resp.Category = &CategoryResponse{Name: t.Category.Name, Slug: t.Category.Slug}
	}
	for _, genre := range t.Genres {
		resp.Genres = append(resp.Genres, GenreResponse{Name: genre.Name, Slug: genre.Slug})
	}
	return resp
}

type PaginatedTitleResponse struct {
	Data       []TitleResponse `json:"data"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
}

func NewPaginatedTitleResponse(data []TitleResponse, total, page, pageSize int) *PaginatedTitleResponse {
	return &PaginatedTitleResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
}
