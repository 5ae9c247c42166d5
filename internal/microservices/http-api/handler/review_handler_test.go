package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/handler"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/permission"
	"titlehub/internal/microservices/http-api/repository"
	"titlehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// --- MOCK SERVICE ---

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Create(ctx context.Context, actor *models.User, titleID int64, text string, score int) (*dto.ReviewResponse, error) {
	args := m.Called(ctx, actor, titleID, text, score)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewResponse), args.Error(1)
}

func (m *MockReviewService) Update(ctx context.Context, actor *models.User, titleID, reviewID int64, text *string, score *int) (*dto.ReviewResponse, error) {
	args := m.Called(ctx, actor, titleID, reviewID, text, score)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewResponse), args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, actor *models.User, titleID, reviewID int64) error {
	args := m.Called(ctx, actor, titleID, reviewID)
	return args.Error(0)
}

func (m *MockReviewService) GetByID(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	args := m.Called(ctx, titleID, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewResponse), args.Error(1)
}

func (m *MockReviewService) List(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error) {
	args := m.Called(ctx, titleID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedReviewResponse), args.Error(1)
}

func (m *MockReviewService) GetRating(ctx context.Context, titleID int64) (*float64, error) {
	args := m.Called(ctx, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*float64), args.Error(1)
}

// --- SETUP ---

// fakeActor injects an authenticated user the way the auth middleware would.
func fakeActor(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set("actor", user)
		}
		c.Next()
	}
}

func setupReviewRouter(mockService *MockReviewService, actor *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewReviewHandler(mockService)

	rg := r.Group("/api/v1/titles")
	rg.Use(fakeActor(actor))
	h.RegisterRoutes(rg)
	return r
}

func sampleReviewResponse() *dto.ReviewResponse {
	return &dto.ReviewResponse{
		ID:      42,
		Author:  "alice",
		Text:    "a fine piece of work",
		Score:   8,
		PubDate: time.Now(),
	}
}

// --- TESTS ---

func TestReviewHandlerCreate(t *testing.T) {
	actor := &models.User{ID: "uid-alice", Username: "alice", Role: models.RoleUser, IsActive: true}

	t.Run("Created", func(t *testing.T) {
		mockService := new(MockReviewService)
		router := setupReviewRouter(mockService, actor)

		mockService.On("Create", mock.Anything, actor, int64(1), "a fine piece of work", 8).
			Return(sampleReviewResponse(), nil)

		body, _ := json.Marshal(dto.CreateReviewRequest{Text: "a fine piece of work", Score: 8})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/titles/1/reviews", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp dto.ReviewResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "alice", resp.Author)
		mockService.AssertExpectations(t)
	})

	t.Run("ScoreOutOfRangeRejectedAtBinding", func(t *testing.T) {
		mockService := new(MockReviewService)
		router := setupReviewRouter(mockService, actor)

		body := []byte(`{"text": "way too good", "score": 11}`)
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/titles/1/reviews", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("DuplicateIs400", func(t *testing.T) {
		mockService := new(MockReviewService)
		router := setupReviewRouter(mockService, actor)

		mockService.On("Create", mock.Anything, actor, int64(1), "again", 5).
			Return(nil, repository.ErrDuplicateReview)

		body, _ := json.Marshal(dto.CreateReviewRequest{Text: "again", Score: 5})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/titles/1/reviews", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("AnonymousIs403", func(t *testing.T) {
		mockService := new(MockReviewService)
		router := setupReviewRouter(mockService, nil)

		mockService.On("Create", mock.Anything, (*models.User)(nil), int64(1), "text", 5).
			Return(nil, permission.ErrPermissionDenied)

		body, _ := json.Marshal(dto.CreateReviewRequest{Text: "text", Score: 5})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/titles/1/reviews", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("MissingTitleIs404", func(t *testing.T) {
		mockService := new(MockReviewService)
		router := setupReviewRouter(mockService, actor)

		mockService.On("Create", mock.Anything, actor, int64(99), "text", 5).
			Return(nil, service.ErrTitleNotFound)

		body, _ := json.Marshal(dto.CreateReviewRequest{Text: "text", Score: 5})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/titles/99/reviews", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("BadTitleID", func(t *testing.T) {
		mockService := new(MockReviewService)
		router := setupReviewRouter(mockService, actor)

		body, _ := json.Marshal(dto.CreateReviewRequest{Text: "text", Score: 5})
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/titles/abc/reviews", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReviewHandlerGetRating(t *testing.T) {
	t.Run("NilForUnreviewedTitle", func(t *testing.T) {
		mockService := new(MockReviewService)
		router := setupReviewRouter(mockService, nil)

		mockService.On("GetRating", mock.Anything, int64(1)).Return(nil, nil)

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/titles/1/reviews/rating", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]*float64
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Nil(t, resp["rating"])
	})

	t.Run("Mean", func(t *testing.T) {
		mockService := new(MockReviewService)
		router := setupReviewRouter(mockService, nil)

		mean := 7.5
		mockService.On("GetRating", mock.Anything, int64(1)).Return(&mean, nil)

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/titles/1/reviews/rating", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]*float64
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 7.5, *resp["rating"])
	})

	t.Run("InconsistencyIs500", func(t *testing.T) {
		mockService := new(MockReviewService)
		router := setupReviewRouter(mockService, nil)

		mockService.On("GetRating", mock.Anything, int64(1)).Return(nil, repository.ErrAggregateInconsistency)

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/titles/1/reviews/rating", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestReviewHandlerList(t *testing.T) {
	mockService := new(MockReviewService)
	router := setupReviewRouter(mockService, nil)

	paginated := dto.NewPaginatedReviewResponse([]dto.ReviewResponse{*sampleReviewResponse()}, 1, 1, 20)
	mockService.On("List", mock.Anything, int64(1), 1, 20).Return(paginated, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/titles/1/reviews", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.PaginatedReviewResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 1, resp.Total)
}

func TestReviewHandlerDelete(t *testing.T) {
	actor := &models.User{ID: "uid-alice", Username: "alice", Role: models.RoleUser, IsActive: true}

	t.Run("NoContent", func(t *testing.T) {
		mockService := new(MockReviewService)
		router := setupReviewRouter(mockService, actor)

		mockService.On("Delete", mock.Anything, actor, int64(1), int64(42)).Return(nil)

		req, _ := http.NewRequest(http.MethodDelete, "/api/v1/titles/1/reviews/42", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("StrangerIs403", func(t *testing.T) {
		mockService := new(MockReviewService)
		router := setupReviewRouter(mockService, actor)

		mockService.On("Delete", mock.Anything, actor, int64(1), int64(42)).
			Return(permission.ErrPermissionDenied)

		req, _ := http.NewRequest(http.MethodDelete, "/api/v1/titles/1/reviews/42", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
