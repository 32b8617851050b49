package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"outpost/internal/auth"
)

// registerUserRoutes registers user management routes
func (h *APIHandlers) registerUserRoutes(group *gin.RouterGroup, authMW *auth.AuthMiddleware) {
	group.GET("/me", h.currentUser)
	group.GET("", authMW.RequireAdmin(), h.listUsers)
	group.POST("", authMW.RequireAdmin(), h.createUser)
}

// currentUser reports the identity the auth boundary resolved for this
// request. The e2e setup flow uses it to verify a stored API key still works.
func (h *APIHandlers) currentUser(c *gin.Context) {
	userID, isAdmin, ok := caller(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": userID, "is_admin": isAdmin})
}

func (h *APIHandlers) listUsers(c *gin.Context) {
	users, err := h.repos.Users.List(c.Request.Context())
	if err != nil {
		errorBody(c, http.StatusInternalServerError, "failed to list users", "internal_error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

// createUser creates a user with a freshly generated API key. The key is
// only returned here; afterwards it is read back as part of the user row.
func (h *APIHandlers) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorBody(c, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}

	if _, err := h.repos.Users.GetByUsername(c.Request.Context(), req.Username); err == nil {
		errorBody(c, http.StatusBadRequest, "username already taken", "bad_request")
		return
	}

	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		errorBody(c, http.StatusInternalServerError, "failed to generate API key", "internal_error")
		return
	}

	user, err := h.repos.Users.Create(c.Request.Context(), req.Username, req.IsAdmin, &apiKey)
	if err != nil {
		errorBody(c, http.StatusInternalServerError, "failed to create user", "internal_error")
		return
	}

	c.JSON(http.StatusCreated, user)
}
