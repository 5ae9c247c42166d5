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
)

// --- MOCK SERVICE ---

type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) Create(ctx context.Context, actor *models.User, titleID, reviewID int64, text string) (*dto.CommentResponse, error) {
	args := m.Called(ctx, actor, titleID, reviewID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CommentResponse), args.Error(1)
}

func (m *MockCommentService) Update(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64, text string) (*dto.CommentResponse, error) {
	args := m.Called(ctx, actor, titleID, reviewID, commentID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CommentResponse), args.Error(1)
}

func (m *MockCommentService) Delete(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64) error {
	args := m.Called(ctx, actor, titleID, reviewID, commentID)
	return args.Error(0)
}

func (m *MockCommentService) GetByID(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error) {
	args := m.Called(ctx, titleID, reviewID, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CommentResponse), args.Error(1)
}

func (m *MockCommentService) List(ctx context.Context, titleID, reviewID int64, page, pageSize int) (*dto.PaginatedCommentResponse, error) {
	args := m.Called(ctx, titleID, reviewID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedCommentResponse), args.Error(1)
}

// --- SETUP ---

func setupCommentRouter(mockService *MockCommentService, actor *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewCommentHandler(mockService)

	rg := r.Group("/api/v1/titles")
	rg.Use(fakeActor(actor))
	h.RegisterRoutes(rg)
	return r
}

// --- TESTS ---

func TestCommentHandlerCreate(t *testing.T) {
	actor := &models.User{ID: "uid-bob", Username: "bob", Role: models.RoleUser, IsActive: true}

	t.Run("Created", func(t *testing.T) {
		mockService := new(MockCommentService)
		router := setupCommentRouter(mockService, actor)

		mockService.On("Create", mock.Anything, actor, int64(1), int64(42), "agreed").
			Return(&dto.CommentResponse{ID: 3, Author: "bob", Text: "agreed"}, nil)

		body, _ := json.Marshal(dto.CreateCommentRequest{Text: "agreed"})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/titles/1/reviews/42/comments", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp dto.CommentResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "bob", resp.Author)
	})

	t.Run("MissingReviewIs404", func(t *testing.T) {
		mockService := new(MockCommentService)
		router := setupCommentRouter(mockService, actor)

		mockService.On("Create", mock.Anything, actor, int64(1), int64(99), "agreed").
			Return(nil, service.ErrReviewNotFound)

		body, _ := json.Marshal(dto.CreateCommentRequest{Text: "agreed"})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/titles/1/reviews/99/comments", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("EmptyTextRejectedAtBinding", func(t *testing.T) {
		mockService := new(MockCommentService)
		router := setupCommentRouter(mockService, actor)

		req, _ := http.NewRequest(http.MethodPost, "/api/v1/titles/1/reviews/42/comments", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCommentHandlerUpdate(t *testing.T) {
	actor := &models.User{ID: "uid-carol", Username: "carol", Role: models.RoleUser, IsActive: true}

	t.Run("StrangerIs403", func(t *testing.T) {
		mockService := new(MockCommentService)
		router := setupCommentRouter(mockService, actor)

		mockService.On("Update", mock.Anything, actor, int64(1), int64(42), int64(3), "vandalism").
			Return(nil, permission.ErrPermissionDenied)

		body, _ := json.Marshal(dto.CreateCommentRequest{Text: "vandalism"})
		req, _ := http.NewRequest(http.MethodPatch, "/api/v1/titles/1/reviews/42/comments/3", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("BadCommentID", func(t *testing.T) {
		mockService := new(MockCommentService)
		router := setupCommentRouter(mockService, actor)

		body, _ := json.Marshal(dto.CreateCommentRequest{Text: "revised"})
		req, _ := http.NewRequest(http.MethodPatch, "/api/v1/titles/1/reviews/42/comments/abc", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCommentHandlerList(t *testing.T) {
	mockService := new(MockCommentService)
	router := setupCommentRouter(mockService, nil)

	paginated := dto.NewPaginatedCommentResponse([]dto.CommentResponse{{ID: 3, Author: "bob", Text: "agreed"}}, 1, 1, 20)
	mockService.On("List", mock.Anything, int64(1), int64(42), 1, 20).Return(paginated, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/titles/1/reviews/42/comments", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.PaginatedCommentResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
}
