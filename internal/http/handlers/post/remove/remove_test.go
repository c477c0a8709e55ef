package remove

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/buzznet/internal/http/middlewarectx"
	"github.com/magabrotheeeer/buzznet/internal/services/post"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Delete(ctx context.Context, id, requesterUID string) error {
	return m.Called(ctx, id, requesterUID).Error(0)
}

func TestRemoveHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		err            error
		wantStatusCode int
		wantContains   string
	}{
		{name: "deleted", wantStatusCode: http.StatusOK, wantContains: `"status":"OK"`},
		{name: "forbidden", err: post.ErrForbidden,
			wantStatusCode: http.StatusForbidden, wantContains: "Not authorized to delete this post"},
		{name: "missing", err: post.ErrPostNotFound,
			wantStatusCode: http.StatusNotFound, wantContains: "Post not found"},
		{name: "internal", err: errors.New("db"), wantStatusCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("Delete", mock.Anything, "p1", "uid-1").Return(tt.err).Once()

			r := chi.NewRouter()
			r.Delete("/posts/{id}", New(log, svc).ServeHTTP)

			req := httptest.NewRequest(http.MethodDelete, "/posts/p1", nil)
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.wantContains != "" {
				assert.Contains(t, rec.Body.String(), tt.wantContains)
			}
			svc.AssertExpectations(t)
		})
	}
}
