package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techshop-dev/techshop/internal/auth"
	"github.com/techshop-dev/techshop/internal/models"
)

func tokenSubjectFor(t *testing.T, srv *Server, email string) auth.TokenSubject {
	t.Helper()

	var user models.User
	require.NoError(t, srv.GetDB().Where("email = ?", email).First(&user).Error)
	return auth.TokenSubject{
		UserID:       user.ID,
		Email:        user.Email,
		Roles:        []string{"ROLE_" + user.Role},
		CustomerType: user.CustomerType,
	}
}

// tokenIssuedAt mints a token for email as if it had been issued at the given time
func tokenIssuedAt(t *testing.T, env *testEnv, email string, issued time.Time) string {
	t.Helper()

	issuer, err := auth.NewIssuer(testSecret, 15*time.Minute)
	require.NoError(t, err)
	issuer.SetClock(func() time.Time { return issued })

	token, err := issuer.GenerateToken(tokenSubjectFor(t, env.srv, email))
	require.NoError(t, err)
	return token
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("ReturnsTokenAndProfile", func(t *testing.T) {
		status, resp := env.loginResponse(SeedAdminEmail, SeedAdminPassword)
		require.Equal(t, http.StatusOK, status)

		assert.Equal(t, SeedAdminEmail, resp.Email)
		assert.Equal(t, "Ada", resp.FirstName)
		assert.Equal(t, models.CustomerPlatinum, resp.CustomerType)
		assert.Equal(t, []string{"ROLE_ADMIN"}, resp.Roles)

		claims, err := env.srv.Issuer().ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.True(t, claims.IsAdmin())
		assert.Equal(t, SeedAdminEmail, claims.Email())
		assert.NotZero(t, claims.UserID)
	})

	t.Run("EmailIsCaseInsensitive", func(t *testing.T) {
		status, _ := env.loginResponse("USER@techshop.local", SeedUserPassword)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		status, _ := env.loginResponse(SeedUserEmail, "nope")
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		status, _ := env.loginResponse("ghost@techshop.local", "whatever")
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("JSONBodyIsNotAccepted", func(t *testing.T) {
		status, raw := env.apiCall(http.MethodPost, "/users/login", "", map[string]string{
			"email":    SeedUserEmail,
			"password": SeedUserPassword,
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, loginFailedMessage, errorOf(t, raw))
	})
}

func TestJWTAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		header string
	}{
		{"MissingHeader", ""},
		{"WrongScheme", "Basic abc"},
		{"BareScheme", "Bearer"},
		{"Garbage", "Bearer not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, env.api.URL+"/api/users/profile", nil)
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}

	t.Run("ExpiredToken", func(t *testing.T) {
		token := tokenIssuedAt(t, env, SeedUserEmail, time.Now().Add(-time.Hour))
		status, raw := env.apiCall(http.MethodGet, "/users/profile", token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid or expired token", errorOf(t, raw))
	})

	t.Run("DeletedUser", func(t *testing.T) {
		token := env.userToken()
		require.NoError(t, env.srv.GetDB().Where("email = ?", SeedUserEmail).Delete(&models.User{}).Error)

		status, raw := env.apiCall(http.MethodGet, "/users/profile", token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "User not found", errorOf(t, raw))
	})
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t)

	t.Run("AcceptsRecentlyExpiredToken", func(t *testing.T) {
		stale := tokenIssuedAt(t, env, SeedUserEmail, time.Now().Add(-time.Hour))

		status, raw := env.apiCall(http.MethodPost, "/users/refresh-token", stale, nil)
		require.Equal(t, http.StatusOK, status)

		resp := decode[LoginResponse](t, raw)
		require.NotEqual(t, stale, resp.Token)

		status, _ = env.apiCall(http.MethodGet, "/users/profile", resp.Token, nil)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("RejectsTokenPastGrace", func(t *testing.T) {
		stale := tokenIssuedAt(t, env, SeedUserEmail, time.Now().Add(-auth.RefreshGrace-time.Hour))

		status, _ := env.apiCall(http.MethodPost, "/users/refresh-token", stale, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("RejectsMissingToken", func(t *testing.T) {
		status, _ := env.apiCall(http.MethodPost, "/users/refresh-token", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("RejectsForeignSignature", func(t *testing.T) {
		other, err := auth.NewIssuer("another-secret", time.Minute)
		require.NoError(t, err)
		token, err := other.GenerateToken(tokenSubjectFor(t, env.srv, SeedUserEmail))
		require.NoError(t, err)

		status, _ := env.apiCall(http.MethodPost, "/users/refresh-token", token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{
		"firstName": "Bo",
		"lastName":  "Buyer",
		"email":     "Bo@Example.com",
		"password":  "secret1",
	}

	status, raw := env.apiCall(http.MethodPost, "/users/register", "", body)
	require.Equal(t, http.StatusCreated, status, string(raw))

	user := decode[map[string]any](t, raw)
	assert.Equal(t, "bo@example.com", user["email"])
	assert.Equal(t, models.CustomerRegular, user["customerType"])
	assert.NotContains(t, user, "passwordHash")

	token := env.login("bo@example.com", "secret1")
	status, _ = env.apiCall(http.MethodGet, "/users/profile", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.apiCall(http.MethodPost, "/users/register", "", body)
	assert.Equal(t, http.StatusConflict, status)

	body["email"] = "not-an-email"
	status, _ = env.apiCall(http.MethodPost, "/users/register", "", body)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUserByEmail(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.userToken()

	status, raw := env.apiCall(http.MethodGet, "/users/email/"+SeedUserEmail, userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, SeedUserEmail, decode[map[string]any](t, raw)["email"])

	status, _ = env.apiCall(http.MethodGet, "/users/email/"+SeedAdminEmail, userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.apiCall(http.MethodGet, "/users/email/"+SeedUserEmail, env.adminToken(), nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	token := env.userToken()

	status, raw := env.apiCall(http.MethodPost, "/users/change-password", token, map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "brand-new",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Current password is incorrect", errorOf(t, raw))

	status, _ = env.apiCall(http.MethodPost, "/users/change-password", token, map[string]string{
		"currentPassword": SeedUserPassword,
		"newPassword":     "brand-new",
	})
	require.Equal(t, http.StatusOK, status)

	loginStatus, _ := env.loginResponse(SeedUserEmail, SeedUserPassword)
	assert.Equal(t, http.StatusUnauthorized, loginStatus)
	env.login(SeedUserEmail, "brand-new")
}

func TestAdminUsers(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken()

	t.Run("RequiresAdmin", func(t *testing.T) {
		status, raw := env.apiCall(http.MethodGet, "/users", env.userToken(), nil)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "Admin access required", errorOf(t, raw))
	})

	var users []models.User
	t.Run("List", func(t *testing.T) {
		status, raw := env.apiCall(http.MethodGet, "/users", admin, nil)
		require.Equal(t, http.StatusOK, status)
		users = decode[[]models.User](t, raw)
		require.Len(t, users, 2)
		assert.Equal(t, SeedAdminEmail, users[0].Email)
	})

	t.Run("UpdatePromotesTier", func(t *testing.T) {
		status, raw := env.apiCall(http.MethodPut, "/users/"+itoa(users[1].ID), admin, map[string]string{
			"firstName":    "Ana",
			"lastName":     "Shopper",
			"email":        SeedUserEmail,
			"customerType": models.CustomerVIP,
		})
		require.Equal(t, http.StatusOK, status, string(raw))

		updated := decode[models.User](t, raw)
		assert.Equal(t, models.CustomerVIP, updated.CustomerType)
		assert.Equal(t, models.RoleUser, updated.Role)
	})

	t.Run("UpdateRejectsUnknownRole", func(t *testing.T) {
		status, _ := env.apiCall(http.MethodPut, "/users/"+itoa(users[1].ID), admin, map[string]string{
			"firstName": "Ana",
			"lastName":  "Shopper",
			"email":     SeedUserEmail,
			"role":      "ROOT",
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("CannotDeleteSelf", func(t *testing.T) {
		status, _ := env.apiCall(http.MethodDelete, "/users/"+itoa(users[0].ID), admin, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Delete", func(t *testing.T) {
		status, _ := env.apiCall(http.MethodDelete, "/users/"+itoa(users[1].ID), admin, nil)
		require.Equal(t, http.StatusNoContent, status)

		status, _ = env.apiCall(http.MethodDelete, "/users/"+itoa(users[1].ID), admin, nil)
		assert.Equal(t, http.StatusNotFound, status)

		var carts int64
		require.NoError(t, env.srv.GetDB().Model(&models.Cart{}).Where("user_id = ?", users[1].ID).Count(&carts).Error)
		assert.Zero(t, carts)
	})
}
