package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/techshop-dev/techshop/internal/auth"
	"github.com/techshop-dev/techshop/internal/models"
)

const (
	bearerPrefix = "Bearer "
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func authErrorMessage(err error) string {
	switch err {
	case ErrMissingAuthHeader:
		return "Missing authorization header"
	case ErrInvalidAuthFormat:
		return "Invalid authorization header format"
	default:
		return "Empty token"
	}
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// JWTAuthMiddleware validates bearer tokens and loads the user they name.
// Tokens outlive neither their expiry nor their user.
func JWTAuthMiddleware(db *gorm.DB, issuer *auth.Issuer, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, err, authErrorMessage(err))
			return
		}

		claims, err := issuer.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to validate JWT token")
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		// Roles and tier come from the database so admin edits apply immediately
		var user models.User
		if err := db.Where("email = ?", claims.Email()).First(&user).Error; err != nil {
			log.Error().Err(err).Str("email", claims.Email()).Msg("User not found")
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
			return
		}

		setSession(c, &auth.SessionData{
			UserID:       user.ID,
			Email:        user.Email,
			Roles:        user.Roles(),
			CustomerType: user.CustomerType,
			IsAdmin:      user.IsAdmin(),
		})

		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !sessionData.IsAdmin {
			respondWithError(c, log, http.StatusForbidden, errors.New("not admin"), "Admin access required")
			return
		}

		c.Next()
	}
}

// requireOwner aborts with 403 unless the session belongs to userID or an admin
func requireOwner(c *gin.Context, log zerolog.Logger, userID int64) (*auth.SessionData, bool) {
	session, ok := GetSessionData(c)
	if !ok {
		respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
		return nil, false
	}
	if session.UserID != userID && !session.IsAdmin {
		respondWithError(c, log, http.StatusForbidden, errors.New("not owner"), "Access denied")
		return nil, false
	}
	return session, true
}
