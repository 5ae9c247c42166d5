package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"titlehub/internal/microservices/http-api/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateReview surfaces the (title_id, author_id) unique index
	// violation. The index closes the check-then-insert race, a lost race
	// reports this error instead of inserting a second row.
	ErrDuplicateReview = errors.New("review already exists for this title and author")

	// ErrAggregateInconsistency means the stored title rating does not match
	// a recomputation over its reviews. Indicates a bug, never swallowed.
	ErrAggregateInconsistency = errors.New("stored rating inconsistent with review scores")
)

const uniqueViolation = "23505" // postgres SQLSTATE

type ReviewRepository interface {
	CreateWithRating(ctx context.Context, review *models.Review) error
	UpdateWithRating(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	DeleteWithRating(ctx context.Context, reviewID, titleID int64) error
	GetByID(ctx context.Context, id int64) (*models.Review, error)
	GetByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error)
	GetRating(ctx context.Context, titleID int64) (*float64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// CreateWithRating inserts the review and refreshes the title rating in one
// transaction: either both commit or neither does.
func (r *reviewRepository) CreateWithRating(ctx context.Context, review *models.Review) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateReview
			}
			return fmt.Errorf("create review: %w", err)
		}
		return recomputeRating(tx, review.TitleID)
	})
	return err
}

// UpdateWithRating saves score/text changes and refreshes the title rating in
// the same transaction.
func (r *reviewRepository) UpdateWithRating(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(review).Error; err != nil {
			return fmt.Errorf("update review: %w", err)
		}
		return recomputeRating(tx, review.TitleID)
	})
}

// Update saves a review without touching the rating, for text-only edits.
func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Save(review).Error; err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

// DeleteWithRating removes the review and refreshes the title rating over the
// remaining reviews (NULL when none remain) in the same transaction.
func (r *reviewRepository) DeleteWithRating(ctx context.Context, reviewID, titleID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND title_id = ?", reviewID, titleID).Delete(&models.Review{})
		if result.Error != nil {
			return fmt.Errorf("delete review: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return recomputeRating(tx, titleID)
	})
}

func (r *reviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Preload("Author").
		First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// GetByTitle retrieves reviews for a title, newest first, with pagination.
func (r *reviewRepository) GetByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	var reviews []models.Review
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Review{}).Where("title_id = ?", titleID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).
		Where("title_id = ?", titleID).
		Preload("Author").
		Order("pub_date DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

// GetRating returns the mean of the title's current review scores, nil when
// the title has no reviews. The stored denormalized value is cross-checked
// against the recomputation; a mismatch reports ErrAggregateInconsistency.
// Both values come from one statement so they read the same snapshot: two
// separate reads at READ COMMITTED could straddle a concurrent review commit
// and flag a healthy system.
func (r *reviewRepository) GetRating(ctx context.Context, titleID int64) (*float64, error) {
	var row struct {
		Stored   *float64
		Computed *float64
	}
	err := r.db.WithContext(ctx).Model(&models.Title{}).
		Select("titles.rating AS stored, AVG(reviews.score) AS computed").
		Joins("LEFT JOIN reviews ON reviews.title_id = titles.id").
		Where("titles.id = ?", titleID).
		Group("titles.id").
		Take(&row).Error
	if err != nil {
		return nil, fmt.Errorf("load title rating: %w", err)
	}

	if !ratingsMatch(row.Stored, row.Computed) {
		return row.Computed, fmt.Errorf("%w: title %d stored=%s computed=%s",
			ErrAggregateInconsistency, titleID, fmtRating(row.Stored), fmtRating(row.Computed))
	}
	return row.Computed, nil
}

// recomputeRating derives the title rating from the scores visible inside the
// surrounding transaction and writes it back before commit. Only the review
// repository writes titles.rating.
func recomputeRating(tx *gorm.DB, titleID int64) error {
	scores, err := titleScores(tx, titleID)
	if err != nil {
		return err
	}
	rating := models.MeanScore(scores)
	if err := tx.Model(&models.Title{}).Where("id = ?", titleID).Update("rating", rating).Error; err != nil {
		return fmt.Errorf("update title rating: %w", err)
	}
	return nil
}

func titleScores(tx *gorm.DB, titleID int64) ([]int, error) {
	var scores []int
	if err := tx.Model(&models.Review{}).Where("title_id = ?", titleID).Pluck("score", &scores).Error; err != nil {
		return nil, fmt.Errorf("load review scores: %w", err)
	}
	return scores, nil
}

func ratingsMatch(stored, computed *float64) bool {
	if stored == nil || computed == nil {
		return stored == nil && computed == nil
	}
	// stored column is decimal(4,2), tolerate its rounding
	return math.Abs(*stored-*computed) < 0.01
}

func fmtRating(v *float64) string {
	if v == nil {
		return "null"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
