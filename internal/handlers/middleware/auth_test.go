package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/savingapp/internal/handlers/userctx"
	"github.com/nkiryanov/savingapp/internal/models"
)

// Allow to use a function as auth service
type authFunc func(ctx context.Context, r *http.Request) (models.User, error)

func (f authFunc) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	return f(ctx, r)
}

// Simple handler that try to get user from context
// If ok write it email to response
func emailHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Must always be true cause middleware has to set user to response or write error to response
		user, ok := userctx.FromContext(r.Context())
		require.True(t, ok)

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(user.Email))
		require.NoError(t, err, "should write email to response")
	})
}

func TestAuthMiddleware_Auth(t *testing.T) {
	t.Run("auth ok", func(t *testing.T) {
		// Middleware that always return ok
		middleware := AuthMiddleware(authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
			return models.User{Email: "budi@example.com"}, nil
		}))

		srv := httptest.NewServer(middleware(emailHandler(t)))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		require.Equalf(t, http.StatusOK, resp.StatusCode, "should return status OK. Resp: %s", string(body))
		require.Equal(t, "budi@example.com", string(body), "should return email in response")
	})

	t.Run("auth fail", func(t *testing.T) {
		// Middleware that always fails
		middleware := AuthMiddleware(authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
			return models.User{}, errors.New("token is broken")
		}))

		srv := httptest.NewServer(middleware(emailHandler(t)))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "should return status Unauthorized. Resp: %s", string(body))
		require.JSONEq(t,
			`{
				"status": "error",
				"message": "Unauthorized"
			}`,
			string(body),
		)
	})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		wantCode int
	}{
		{"staff ok", &models.User{Email: "staff@example.com", Role: models.RoleStaff}, http.StatusOK},
		{"admin ok", &models.User{Email: "admin@example.com", Role: models.RoleAdmin}, http.StatusOK},
		{"nasabah forbidden", &models.User{Email: "budi@example.com", Role: models.RoleNasabah}, http.StatusForbidden},
		{"anonymous forbidden", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireRole(models.RoleStaff, models.RoleAdmin)(emailHandler(t))

			r := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.user != nil {
				r = r.WithContext(userctx.New(r.Context(), *tt.user))
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, r)

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				require.Equal(t, tt.user.Email, rec.Body.String())
			}
		})
	}
}
