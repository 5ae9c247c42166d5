package service

import (
	"context"
	"errors"
	"log/slog"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/permission"
	"titlehub/internal/microservices/http-api/repository"

	"gorm.io/gorm"
)

var (
	ErrTitleNotFound  = errors.New("title not found")
	ErrReviewNotFound = errors.New("review not found")
)

type ReviewService interface {
	Create(ctx context.Context, actor *models.User, titleID int64, text string, score int) (*dto.ReviewResponse, error)
	Update(ctx context.Context, actor *models.User, titleID, reviewID int64, text *string, score *int) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, actor *models.User, titleID, reviewID int64) error
	GetByID(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error)
	List(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error)
	GetRating(ctx context.Context, titleID int64) (*float64, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  repository.TitleRepository
	logger     *slog.Logger
}

func NewReviewService(reviewRepo repository.ReviewRepository, titleRepo repository.TitleRepository, logger *slog.Logger) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
		logger:     logger,
	}
}

// Create attaches a new review to a title. At most one review per
// (title, author): a second attempt reports repository.ErrDuplicateReview,
// backed by the unique index so concurrent submissions cannot slip through.
func (s *reviewService) Create(ctx context.Context, actor *models.User, titleID int64, text string, score int) (*dto.ReviewResponse, error) {
	if err := permission.Decide(actor, permission.ActionCreate, permission.ResourceReview, ""); err != nil {
		return nil, err
	}
	if err := models.ValidateScore(score); err != nil {
		return nil, err
	}

	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     text,
		Score:    score,
	}
	if err := s.reviewRepo.CreateWithRating(ctx, review); err != nil {
		return nil, err
	}

	// Reload with author data
	review, err := s.reviewRepo.GetByID(ctx, review.ID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToReviewResponse(review), nil
}

// Update edits score and/or text. Allowed for the author, moderators and
// admins; the rating is refreshed in the same transaction when the score
// changed, text-only edits leave it untouched.
func (s *reviewService) Update(ctx context.Context, actor *models.User, titleID, reviewID int64, text *string, score *int) (*dto.ReviewResponse, error) {
	review, err := s.getForTitle(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := permission.Decide(actor, permission.ActionUpdate, permission.ResourceReview, review.AuthorID); err != nil {
		return nil, err
	}

	scoreChanged := false
	if score != nil {
		if err := models.ValidateScore(*score); err != nil {
			return nil, err
		}
		scoreChanged = *score != review.Score
		review.Score = *score
	}
	if text != nil {
		review.Text = *text
	}

	if scoreChanged {
		err = s.reviewRepo.UpdateWithRating(ctx, review)
	} else {
		err = s.reviewRepo.Update(ctx, review)
	}
	if err != nil {
		return nil, err
	}

	review, err = s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToReviewResponse(review), nil
}

// Delete removes a review and refreshes the title rating over the remaining
// reviews. Same permission gate as Update.
func (s *reviewService) Delete(ctx context.Context, actor *models.User, titleID, reviewID int64) error {
	review, err := s.getForTitle(ctx, titleID, reviewID)
	if err != nil {
		return err
	}

	if err := permission.Decide(actor, permission.ActionDelete, permission.ResourceReview, review.AuthorID); err != nil {
		return err
	}

	if err := s.reviewRepo.DeleteWithRating(ctx, reviewID, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	return nil
}

func (s *reviewService) GetByID(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	review, err := s.getForTitle(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) List(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error) {
	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	reviews, total, err := s.reviewRepo.GetByTitle(ctx, titleID, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		responses = append(responses, *dto.FromModelToReviewResponse(&review))
	}
	return dto.NewPaginatedReviewResponse(responses, int(total), page, pageSize), nil
}

// GetRating returns the title's current mean score, nil when it has no
// reviews. An inconsistency between the stored and recomputed value is a bug
// and is logged, never papered over.
func (s *reviewService) GetRating(ctx context.Context, titleID int64) (*float64, error) {
	rating, err := s.reviewRepo.GetRating(ctx, titleID)
	if err != nil {
		if errors.Is(err, repository.ErrAggregateInconsistency) {
			s.logger.ErrorContext(ctx, "rating invariant violated", "title_id", titleID, "error", err)
			return nil, err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}
	return rating, nil
}

func (s *reviewService) getForTitle(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	// nested route: the review must belong to the title in the path
	if review.TitleID != titleID {
		return nil, ErrReviewNotFound
	}
	return review, nil
}
