package list

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/buzznet/internal/models"
	"github.com/magabrotheeeer/buzznet/internal/services/post"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	args := m.Called(ctx, postID)
	c, _ := args.Get(0).([]*models.Comment)
	return c, args.Error(1)
}

func TestListCommentsHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		comments       []*models.Comment
		err            error
		wantStatusCode int
		wantContains   string
	}{
		{name: "empty list", comments: []*models.Comment{}, wantStatusCode: http.StatusOK, wantContains: "[]"},
		{name: "two comments", comments: []*models.Comment{{ID: "c1"}, {ID: "c2"}},
			wantStatusCode: http.StatusOK, wantContains: `"id":"c2"`},
		{name: "post missing", err: post.ErrPostNotFound,
			wantStatusCode: http.StatusNotFound, wantContains: "Post not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("ListComments", mock.Anything, "p1").Return(tt.comments, tt.err).Once()

			r := chi.NewRouter()
			r.Get("/posts/{id}/comments", New(log, svc).ServeHTTP)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/p1/comments", nil))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantContains)
			svc.AssertExpectations(t)
		})
	}
}
