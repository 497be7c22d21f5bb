package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unxchange/auth-service/internal/httputil"
	"github.com/unxchange/auth-service/internal/user"
)

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok, "identity missing from context")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"email": identity.User.Email,
			"role":  identity.User.Role.String(),
		})
	})
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@x.com", "secret123", "administrator")
	require.NoError(t, err)
	token, err := svc.Login(ctx, "ana@x.com", "secret123")
	require.NoError(t, err)

	handler := NewMiddleware(svc).RequireAuth(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ana@x.com", body["email"])
	assert.Equal(t, "administrator", body["role"])
}

func TestRequireAuth_Failures(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@x.com", "secret123", "")
	require.NoError(t, err)
	validToken, err := svc.Login(ctx, "ana@x.com", "secret123")
	require.NoError(t, err)

	shortLived := newTestJWTService(t, "test-signing-secret")
	expiredToken, err := shortLived.CreateToken("ana@x.com", user.RoleStudent, -time.Minute)
	require.NoError(t, err)

	foreignToken, err := newTestJWTService(t, "other-secret").
		CreateToken("ana@x.com", user.RoleStudent, time.Hour)
	require.NoError(t, err)

	// Valid signature, but the subject was never registered.
	orphanToken, err := shortLived.CreateToken("gone@x.com", user.RoleStudent, time.Hour)
	require.NoError(t, err)

	handler := NewMiddleware(svc).RequireAuth(protectedEcho(t))

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", httputil.CodeMissingAuth},
		{"wrong scheme", "Basic " + validToken, httputil.CodeInvalidAuthHeader},
		{"garbage token", "Bearer garbage", httputil.CodeInvalidToken},
		{"expired token", "Bearer " + expiredToken, httputil.CodeTokenExpired},
		{"wrong signature", "Bearer " + foreignToken, httputil.CodeInvalidToken},
		{"subject removed", "Bearer " + orphanToken, httputil.CodeIdentityNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)

			var resp httputil.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}
