package contentremove

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/watchhub/internal/services/content"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func TestHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		setup      func(m *ServiceMock)
		wantStatus int
		wantError  string
	}{
		{
			name: "deleted",
			id:   "4",
			setup: func(m *ServiceMock) {
				m.On("Delete", mock.Anything, int64(4)).Return(nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "negative id",
			id:         "-4",
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid id",
		},
		{
			name: "missing",
			id:   "8",
			setup: func(m *ServiceMock) {
				m.On("Delete", mock.Anything, int64(8)).Return(content.ErrNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
			wantError:  "content not found",
		},
		{
			name: "storage failure",
			id:   "9",
			setup: func(m *ServiceMock) {
				m.On("Delete", mock.Anything, int64(9)).Return(errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.setup != nil {
				tt.setup(svc)
			}

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/contents/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.EqualValues(t, 4, got["data"].(map[string]any)["deleted"])
			}
			svc.AssertExpectations(t)
		})
	}
}
