package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"

	"github.com/techshop-dev/techshop/internal/auth"
	"github.com/techshop-dev/techshop/internal/models"
)

const loginFailedMessage = "Authentication failed: Invalid email or password"

// LoginRequest represents a form-encoded login request
type LoginRequest struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// LoginResponse represents a login or refresh response
type LoginResponse struct {
	Token        string   `json:"jwtToken"`
	Email        string   `json:"email"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	CustomerType string   `json:"customerType"`
	Roles        []string `json:"roles"`
}

// RegisterRequest represents an account creation request
type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// UpdateUserRequest represents an admin edit of an account
type UpdateUserRequest struct {
	FirstName    string `json:"firstName" binding:"required"`
	LastName     string `json:"lastName" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Role         string `json:"role" binding:"omitempty,oneof=USER ADMIN"`
	CustomerType string `json:"customerType" binding:"omitempty,oneof=REGULAR PREMIUM PLATINUM VIP"`
}

func (s *Server) issueToken(user *models.User) (*LoginResponse, error) {
	roles := make([]string, 0, 1)
	for _, role := range user.Roles() {
		roles = append(roles, "ROLE_"+role)
	}

	token, err := s.issuer.GenerateToken(auth.TokenSubject{
		UserID:       user.ID,
		Email:        user.Email,
		Roles:        roles,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		CustomerType: user.CustomerType,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:        token,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		CustomerType: user.CustomerType,
		Roles:        roles,
	}, nil
}

// @Summary Login
// @Description Authenticate with form-encoded email and password
// @Tags users
// @Accept x-www-form-urlencoded
// @Produce json
// @Success 200 {object} LoginResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/users/login [post]
func (s *Server) login(c *gin.Context) {
	// Login is form-encoded only
	var req LoginRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": loginFailedMessage})
		return
	}

	// Find user by email
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": loginFailedMessage})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Verify password
	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": loginFailedMessage})
		return
	}

	resp, err := s.issueToken(&user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	c.JSON(http.StatusOK, resp)
}

// @Summary Refresh token
// @Description Exchange a valid or recently expired token for a new one
// @Tags users
// @Produce json
// @Success 200 {object} LoginResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/users/refresh-token [post]
func (s *Server) refreshToken(c *gin.Context) {
	token, err := extractBearerToken(c.GetHeader("Authorization"))
	if err != nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, err, authErrorMessage(err))
		return
	}

	claims, err := s.issuer.ValidateForRefresh(token)
	if err != nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, err, "Invalid or expired token")
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", claims.Email()).First(&user).Error; err != nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, ErrUserNotFound, "User not found")
		return
	}

	resp, err := s.issueToken(&user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("Token refreshed")
	c.JSON(http.StatusOK, resp)
}

// @Summary Register
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register request"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/users/register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(req.Email)

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		CustomerType: models.CustomerRegular,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Cart{UserID: user.ID}).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	c.JSON(http.StatusCreated, user)
}

// @Router /api/users/profile [get]
// @Success 200 {object} models.User
func (s *Server) getProfile(c *gin.Context) {
	session, _ := GetSessionData(c)

	var user models.User
	if err := models.FindByID(s.db, session.UserID, &user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Router /api/users/email/{email} [get]
// @Success 200 {object} models.User
func (s *Server) getUserByEmail(c *gin.Context) {
	session, _ := GetSessionData(c)
	email := strings.ToLower(c.Param("email"))

	if !strings.EqualFold(session.Email, email) && !session.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Router /api/users/change-password [post]
// @Param request body ChangePasswordRequest true "Password change"
// @Success 200 {object} map[string]interface{}
func (s *Server) changePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, _ := GetSessionData(c)

	var user models.User
	if err := models.FindByID(s.db, session.UserID, &user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// A wrong current password is a bad request, not an auth failure
	if err := auth.VerifyPassword(req.CurrentPassword, user.PasswordHash); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}

	if err := s.db.Model(&user).Update("password_hash", passwordHash).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

// @Router /api/users [get]
// @Success 200 {array} models.User
func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("id ASC").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// @Router /api/users/{id} [put]
// @Param request body UpdateUserRequest true "User update"
// @Success 200 {object} models.User
func (s *Server) updateUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, id, &user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Email = strings.ToLower(req.Email)
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.CustomerType != "" {
		user.CustomerType = req.CustomerType
	}

	if err := s.db.Save(&user).Error; err != nil {
		s.logger.Error().Err(err).Int64("user_id", id).Msg("Failed to update user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Router /api/users/{id} [delete]
// @Success 204
func (s *Server) deleteUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	session, _ := GetSessionData(c)
	if session.UserID == id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, id, &user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteCartOf(tx, id); err != nil {
			return err
		}
		if err := deleteOrdersOf(tx, id); err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", id).Msg("Failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	s.logger.Info().Int64("user_id", id).Msg("User deleted")
	c.Status(http.StatusNoContent)
}

// idParam parses a numeric path parameter, answering 400 when it is malformed
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}
