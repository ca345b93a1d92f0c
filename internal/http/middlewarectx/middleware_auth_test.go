package middlewarectx_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/watchhub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/services/auth"
)

type ValidatorMock struct {
	mock.Mock
}

func (m *ValidatorMock) ValidateToken(token string) (*auth.Principal, error) {
	args := m.Called(token)
	p, _ := args.Get(0).(*auth.Principal)
	return p, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	userID := uuid.New()
	validator := new(ValidatorMock)
	handlerCalled := false

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		id, ok := middlewarectx.UserIDFrom(r.Context())
		assert.True(t, ok)
		assert.Equal(t, userID, id)
		assert.Equal(t, "cinefan", r.Context().Value(middlewarectx.Handle))
		assert.Equal(t, models.RoleUser, r.Context().Value(middlewarectx.Role))
		w.WriteHeader(http.StatusOK)
	})

	mw := middlewarectx.JWTMiddleware(validator, newNoopLogger())(nextHandler)

	tests := []struct {
		name           string
		authHeader     string
		mockResp       *auth.Principal
		mockErr        error
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "token validation error",
			authHeader:     "Bearer token",
			mockErr:        errors.New("token is expired"),
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer validtoken",
			mockResp:       &auth.Principal{UserID: userID, Handle: "cinefan", Role: models.RoleUser},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled = false
			validator.ExpectedCalls = nil
			validator.Calls = nil
			if tt.mockResp != nil || tt.mockErr != nil {
				validator.On("ValidateToken", strings.TrimPrefix(tt.authHeader, "Bearer ")).
					Return(tt.mockResp, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodGet, "/somepath", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			mw.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			validator.AssertExpectations(t)
		})
	}
}

func TestRequireRole(t *testing.T) {
	adminID := uuid.New()
	validator := new(ValidatorMock)
	validator.On("ValidateToken", "admin").Return(&auth.Principal{UserID: adminID, Role: models.RoleAdmin}, nil)
	validator.On("ValidateToken", "user").Return(&auth.Principal{UserID: uuid.New(), Role: models.RoleUser}, nil)

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	chain := middlewarectx.JWTMiddleware(validator, newNoopLogger())(
		middlewarectx.RequireRole(newNoopLogger(), models.RoleAdmin)(ok))

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{name: "admin passes", token: "admin", status: http.StatusOK},
		{name: "user is forbidden", token: "user", status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/media", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			chain.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("without jwt middleware", func(t *testing.T) {
		rec := httptest.NewRecorder()
		middlewarectx.RequireRole(newNoopLogger(), models.RoleAdmin)(ok).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
