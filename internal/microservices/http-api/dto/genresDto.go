package dto

type CreateGenreRequest struct {
    Name string `json:"name" binding:"required,max=256"`
    Slug string `json:"slug" binding:"required,max=50"`
}

type GenreResponse struct {
    Name string `json:"name"`
    Slug string `json:"slug"`
}

type PaginatedGenreResponse struct {
    Data       []GenreResponse `json:"data"`
    Page       int             `json:"page"`
    PageSize   int             `json:"page_size"`
    Total      int             `json:"total"`
    TotalPages int             `json:"total_pages"`
}

func NewPaginatedGenreResponse(data []GenreResponse, total, page, pageSize int) *PaginatedGenreResponse {
    return &PaginatedGenreResponse{
        Data:       data,
        Page:       page,
        PageSize:   pageSize,
        Total:      total,
        TotalPages: totalPages(total, pageSize),
    }
}
