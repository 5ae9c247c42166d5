package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/handler"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/permission"
	"titlehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// --- MOCK SERVICE ---

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedCategoryResponse, error) {
	args := m.Called(ctx, search, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedCategoryResponse), args.Error(1)
}

func (m *MockCategoryService) Create(ctx context.Context, actor *models.User, name, slug string) (*dto.CategoryResponse, error) {
	args := m.Called(ctx, actor, name, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CategoryResponse), args.Error(1)
}

func (m *MockCategoryService) Delete(ctx context.Context, actor *models.User, slug string) error {
	args := m.Called(ctx, actor, slug)
	return args.Error(0)
}

// --- SETUP ---

func setupCategoryRouter(mockService *MockCategoryService, actor *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewCategoryHandler(mockService)

	rg := r.Group("/api/v1/categories")
	rg.Use(fakeActor(actor))
	h.RegisterRoutes(rg)
	return r
}

// --- TESTS ---

func TestCategoryHandlerCreate(t *testing.T) {
	admin := &models.User{ID: "uid-adm", Username: "admin", Role: models.RoleAdmin, IsActive: true}

	t.Run("Created", func(t *testing.T) {
		mockService := new(MockCategoryService)
		router := setupCategoryRouter(mockService, admin)

		mockService.On("Create", mock.Anything, admin, "Books", "books").
			Return(&dto.CategoryResponse{Name: "Books", Slug: "books"}, nil)

		body, _ := json.Marshal(dto.CreateCategoryRequest{Name: "Books", Slug: "books"})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/categories", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("DuplicateSlugIs400", func(t *testing.T) {
		mockService := new(MockCategoryService)
		router := setupCategoryRouter(mockService, admin)

		// the unique index on slug reports a duplicate straight from storage
		mockService.On("Create", mock.Anything, admin, "Books", "books").
			Return(nil, gorm.ErrDuplicatedKey)

		body, _ := json.Marshal(dto.CreateCategoryRequest{Name: "Books", Slug: "books"})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/categories", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NonAdminIs403", func(t *testing.T) {
		user := &models.User{ID: "uid-u", Username: "u", Role: models.RoleUser, IsActive: true}
		mockService := new(MockCategoryService)
		router := setupCategoryRouter(mockService, user)

		mockService.On("Create", mock.Anything, user, "Books", "books").
			Return(nil, permission.ErrPermissionDenied)

		body, _ := json.Marshal(dto.CreateCategoryRequest{Name: "Books", Slug: "books"})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/categories", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCategoryHandlerDelete(t *testing.T) {
	admin := &models.User{ID: "uid-adm", Username: "admin", Role: models.RoleAdmin, IsActive: true}

	t.Run("NoContent", func(t *testing.T) {
		mockService := new(MockCategoryService)
		router := setupCategoryRouter(mockService, admin)

		mockService.On("Delete", mock.Anything, admin, "books").Return(nil)

		req, _ := http.NewRequest(http.MethodDelete, "/api/v1/categories/books", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("MissingIs404", func(t *testing.T) {
		mockService := new(MockCategoryService)
		router := setupCategoryRouter(mockService, admin)

		mockService.On("Delete", mock.Anything, admin, "vinyl").Return(service.ErrCategoryNotFound)

		req, _ := http.NewRequest(http.MethodDelete, "/api/v1/categories/vinyl", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
