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

var ErrCommentNotFound = errors.New("comment not found")

type CommentService interface {
	Create(ctx context.Context, actor *models.User, titleID, reviewID int64, text string) (*dto.CommentResponse, error)
	Update(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64, text string) (*dto.CommentResponse, error)
	Delete(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64) error
	GetByID(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error)
	List(ctx context.Context, titleID, reviewID int64, page, pageSize int) (*dto.PaginatedCommentResponse, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
}

func NewCommentService(commentRepo repository.CommentRepository, reviewRepo repository.ReviewRepository) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
	}
}

// Create attaches a comment to a review. Comments have no aggregate side
// effects, the title rating is untouched.
func (s *commentService) Create(ctx context.Context, actor *models.User, titleID, reviewID int64, text string) (*dto.CommentResponse, error) {
	if err := permission.Decide(actor, permission.ActionCreate, permission.ResourceComment, ""); err != nil {
		return nil, err
	}

	if _, err := s.reviewForTitle(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: actor.ID,
		Text:     text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	// Reload with author data
	comment, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) Update(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64, text string) (*dto.CommentResponse, error) {
	comment, err := s.getForReview(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	if err := permission.Decide(actor, permission.ActionUpdate, permission.ResourceComment, comment.AuthorID); err != nil {
		return nil, err
	}

	comment.Text = text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	comment, err = s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) Delete(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64) error {
	comment, err := s.getForReview(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}

	if err := permission.Decide(actor, permission.ActionDelete, permission.ResourceComment, comment.AuthorID); err != nil {
		return err
	}

	return s.commentRepo.Delete(ctx, commentID)
}

func (s *commentService) GetByID(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error) {
	comment, err := s.getForReview(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, page, pageSize int) (*dto.PaginatedCommentResponse, error) {
	if _, err := s.reviewForTitle(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comments, total, err := s.commentRepo.GetByReview(ctx, reviewID, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		responses = append(responses, *dto.FromModelToCommentResponse(&comment))
	}
	return dto.NewPaginatedCommentResponse(responses, int(total), page, pageSize), nil
}

func (s *commentService) reviewForTitle(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if review.TitleID != titleID {
		return nil, ErrReviewNotFound
	}
	return review, nil
}

func (s *commentService) getForReview(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if _, err := s.reviewForTitle(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if comment.ReviewID != reviewID {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}
