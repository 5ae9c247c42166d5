package handler

import (
	"net/http"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/middleware"
	"titlehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// RegisterRoutes registers user routes on the /users group. The "me" routes
// must come before the :username wildcard ones.
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/me", h.GetSelf)
	router.PATCH("/me", h.UpdateSelf)

	router.GET("", h.List)
	router.POST("", h.Create)
	router.GET("/:username", h.Get)
	router.PATCH("/:username", h.Update)
	router.DELETE("/:username", h.Delete)
}

// List returns users (admin only)
// GET /api/v1/users?search=
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)
	actor := middleware.GetActor(c)

	users, err := h.userService.List(c.Request.Context(), actor, c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get returns one user (admin only)
// GET /api/v1/users/:username
func (h *UserHandler) Get(c *gin.Context) {
	actor := middleware.GetActor(c)

	user, err := h.userService.GetByUsername(c.Request.Context(), actor, c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Create provisions a user (admin only)
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.GetActor(c)
	user, err := h.userService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Update edits a user, role included (admin only)
// PATCH /api/v1/users/:username
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.GetActor(c)
	user, err := h.userService.Update(c.Request.Context(), actor, c.Param("username"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete removes a user and everything they authored (admin only)
// DELETE /api/v1/users/:username
func (h *UserHandler) Delete(c *gin.Context) {
	actor := middleware.GetActor(c)
	if err := h.userService.Delete(c.Request.Context(), actor, c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSelf returns the actor's own profile
// GET /api/v1/users/me
func (h *UserHandler) GetSelf(c *gin.Context) {
	actor := middleware.GetActor(c)

	user, err := h.userService.GetSelf(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateSelf edits the actor's own profile; the role field is not accepted
// PATCH /api/v1/users/me
func (h *UserHandler) UpdateSelf(c *gin.Context) {
	var req dto.SelfUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.GetActor(c)
	user, err := h.userService.UpdateSelf(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
