package jwtauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"identity_service/internal/auth"
	resp "identity_service/internal/lib/api/response"
	"identity_service/internal/lib/logger/handlers/slogdiscard"
	"identity_service/internal/models"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, kind auth.TokenKind, bearer string) (*models.Session, error) {
	args := m.Called(ctx, kind, bearer)
	s, _ := args.Get(0).(*models.Session)
	return s, args.Error(1)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			assert.Equal(t, tt.want, BearerToken(r))
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		session  *models.Session
		err      error
		wantCode int
		wantMsg  string
	}{
		{name: "no token", err: auth.ErrUnauthorized, wantCode: http.StatusUnauthorized, wantMsg: resp.MsgUnauthorized},
		{name: "invalid session", err: auth.ErrInvalidSession, wantCode: http.StatusUnauthorized, wantMsg: resp.MsgInvalidSession},
		{name: "store down", err: errors.New("redis down"), wantCode: http.StatusInternalServerError, wantMsg: resp.MsgInternal},
		{name: "ok", session: &models.Session{ID: "session:7:x", UserID: 7}, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authenticator := new(MockAuthenticator)
			authenticator.On("Authenticate", mock.Anything, auth.RefreshToken, "tok").
				Return(tt.session, tt.err).Once()

			var got models.Session
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = SessionFromContext(r.Context())
				render.JSON(w, r, resp.OK())
			})

			h := New(slogdiscard.NewDiscardLogger(), authenticator, auth.RefreshToken)(next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer tok")
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			require.Equal(t, tt.wantCode, rr.Code)
			authenticator.AssertExpectations(t)

			if tt.session != nil {
				assert.Equal(t, *tt.session, got)
				return
			}

			var body resp.Response
			require.NoError(t, render.DecodeJSON(rr.Body, &body))
			assert.Equal(t, resp.StatusError, body.Status)
			assert.Equal(t, tt.wantMsg, body.Error)
		})
	}
}
