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

type UserService interface {
	List(ctx context.Context, actor *models.User, search string, page, pageSize int) (*dto.PaginatedUserResponse, error)
	GetByUsername(ctx context.Context, actor *models.User, username string) (*dto.UserResponse, error)
	Create(ctx context.Context, actor *models.User, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	Update(ctx context.Context, actor *models.User, username string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, actor *models.User, username string) error
	GetSelf(actor *models.User) (*dto.UserResponse, error)
	UpdateSelf(ctx context.Context, actor *models.User, req *dto.SelfUpdateRequest) (*dto.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) List(ctx context.Context, actor *models.User, search string, page, pageSize int) (*dto.PaginatedUserResponse, error) {
	if err := permission.Decide(actor, permission.ActionRead, permission.ResourceUser, ""); err != nil {
		return nil, err
	}

	users, total, err := s.userRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, *dto.FromModelToUserResponse(&user))
	}
	return dto.NewPaginatedUserResponse(responses, int(total), page, pageSize), nil
}

func (s *userService) GetByUsername(ctx context.Context, actor *models.User, username string) (*dto.UserResponse, error) {
	if err := permission.Decide(actor, permission.ActionRead, permission.ResourceUser, ""); err != nil {
		return nil, err
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToUserResponse(user), nil
}

// Create lets an admin provision a user directly, role included. The account
// still needs the confirmation code exchange before it can write.
func (s *userService) Create(ctx context.Context, actor *models.User, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := permission.Decide(actor, permission.ActionCreate, permission.ResourceUser, ""); err != nil {
		return nil, err
	}
	if err := models.ValidateUsername(req.Username); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if err := validateRole(role); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, ErrNameInUse
	}
	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailInUse
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return dto.FromModelToUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, actor *models.User, username string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := permission.Decide(actor, permission.ActionUpdate, permission.ResourceUser, ""); err != nil {
		return nil, err
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		if err := validateRole(*req.Role); err != nil {
			return nil, err
		}
		user.Role = *req.Role
	}
	applyProfileFields(user, req.Email, req.FirstName, req.LastName, req.Bio)

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return dto.FromModelToUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, actor *models.User, username string) error {
	if err := permission.Decide(actor, permission.ActionDelete, permission.ResourceUser, ""); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *userService) GetSelf(actor *models.User) (*dto.UserResponse, error) {
	if !permission.CanManageSelf(actor) {
		return nil, permission.ErrPermissionDenied
	}
	return dto.FromModelToUserResponse(actor), nil
}

// UpdateSelf edits the actor's own profile. The role field is not part of the
// request type, only admins change roles through the admin path.
func (s *userService) UpdateSelf(ctx context.Context, actor *models.User, req *dto.SelfUpdateRequest) (*dto.UserResponse, error) {
	if !permission.CanManageSelf(actor) {
		return nil, permission.ErrPermissionDenied
	}

	applyProfileFields(actor, req.Email, req.FirstName, req.LastName, req.Bio)

	if err := s.userRepo.Update(ctx, actor); err != nil {
		return nil, err
	}
	return dto.FromModelToUserResponse(actor), nil
}

func (s *userService) findByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func applyProfileFields(user *models.User, email, firstName, lastName, bio *string) {
	if email != nil {
		user.Email = *email
	}
	if firstName != nil {
		user.FirstName = *firstName
	}
	if lastName != nil {
		user.LastName = *lastName
	}
	if bio != nil {
		user.Bio = *bio
	}
}

func validateRole(role string) error {
	switch role {
	case models.RoleUser, models.RoleModerator, models.RoleAdmin:
		return nil
	}
	return fmt.Errorf("%w: unknown role %q", models.ErrValidation, role)
}
