package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

// =====================
// helper
// =====================

type mwOKResponse struct {
	UserID       int64      `json:"user_id"`
	Role         model.Role `json:"role"`
	TokenVersion int        `json:"token_version"`
}

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

// authJWT → tokenVersionGuard → (adminRoleGuard) の順で通したときのレスポンス
func protectedEcho(s *Server, admin bool) *echo.Echo {
	e := echo.New()
	mw := []echo.MiddlewareFunc{s.authJWT(), s.tokenVersionGuard()}
	if admin {
		mw = append(mw, adminRoleGuard())
	}
	e.GET("/protected", func(c echo.Context) error {
		return c.JSON(http.StatusOK, mwOKResponse{
			UserID:       c.Get(ctxUserIDKey).(int64),
			Role:         c.Get(ctxUserRoleKey).(model.Role),
			TokenVersion: c.Get(ctxTokenVersionKey).(int),
		})
	}, mw...)
	return e
}

func runRequest(t *testing.T, e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeAuthError(t *testing.T, rec *httptest.ResponseRecorder) authErrorBody {
	t.Helper()
	var r authErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	return r
}

// =====================
// authJWT
// =====================

func TestAuthJWT_Rejects(t *testing.T) {
	s := New(t)
	u := s.SeedUser(t, "Maya", "maya@example.com", "secret1", model.RoleCustomer)
	e := protectedEcho(s, false)

	valid := jwt.MapClaims{"sub": "1", "role": "customer", "tv": 0, "exp": time.Now().Add(time.Hour).Unix()}
	expired := jwt.MapClaims{"sub": "1", "role": "customer", "tv": 0, "exp": time.Now().Add(-time.Minute).Unix()}

	cases := map[string]struct {
		header string
		want   string
	}{
		"no header":     {"", "No token provided"},
		"bad scheme":    {"Token abc.def.ghi", "No token provided"},
		"bad signature": {"Bearer " + signToken(t, []byte("other"), valid, jwt.SigningMethodHS256), "Invalid token"},
		"wrong alg":     {"Bearer " + signToken(t, s.secret, valid, jwt.SigningMethodHS512), "Invalid token"},
		"expired":       {"Bearer " + signToken(t, s.secret, expired, jwt.SigningMethodHS256), "Invalid token"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := runRequest(t, e, tc.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tc.want, decodeAuthError(t, rec).Error)
		})
	}

	// 正常：ctxに値が入る
	rec := runRequest(t, e, "Bearer "+s.TokenFor(t, u.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var ok mwOKResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ok))
	assert.Equal(t, u.ID, ok.UserID)
	assert.Equal(t, model.RoleCustomer, ok.Role)
	assert.Equal(t, 0, ok.TokenVersion)
}

// =====================
// tokenVersionGuard
// =====================

func TestTokenVersionGuard_Revoke(t *testing.T) {
	s := New(t)
	u := s.SeedUser(t, "Maya", "maya@example.com", "secret1", model.RoleCustomer)
	e := protectedEcho(s, false)

	old := s.TokenFor(t, u.ID)
	s.Revoke(u.ID)

	rec := runRequest(t, e, "Bearer "+old)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 新しく発行したトークンは通る
	rec = runRequest(t, e, "Bearer "+s.TokenFor(t, u.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenVersionGuard_UnknownUser(t *testing.T) {
	s := New(t)
	e := protectedEcho(s, false)

	claims := jwt.MapClaims{"sub": "42", "role": "admin", "tv": 0, "exp": time.Now().Add(time.Hour).Unix()}
	rec := runRequest(t, e, "Bearer "+signToken(t, s.secret, claims, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =====================
// adminRoleGuard
// =====================

func TestAdminRoleGuard(t *testing.T) {
	s := New(t)
	customer := s.SeedUser(t, "Maya", "maya@example.com", "secret1", model.RoleCustomer)
	admin := s.SeedUser(t, "Owner", "owner@example.com", "secret1", model.RoleAdmin)
	e := protectedEcho(s, true)

	rec := runRequest(t, e, "Bearer "+s.TokenFor(t, customer.ID))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin access required", decodeAuthError(t, rec).Error)

	rec = runRequest(t, e, "Bearer "+s.TokenFor(t, admin.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
}
