package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"identity_service/internal/auth"
	resp "identity_service/internal/lib/api/response"
	"identity_service/internal/lib/logger/handlers/slogdiscard"
	"identity_service/internal/lib/validate"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderError(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantMsg  string
	}{
		{auth.ErrUserExists, http.StatusBadRequest, resp.MsgUserAlreadyExists},
		{auth.ErrWrongPassword, http.StatusForbidden, resp.MsgWrongPassword},
		{auth.ErrNotVerified, http.StatusForbidden, resp.MsgNotVerify},
		{auth.ErrOperationNotFound, http.StatusNotFound, resp.MsgOperationNotFound},
		{auth.ErrInvalidSession, http.StatusUnauthorized, resp.MsgInvalidSession},
		{auth.ErrUnauthorized, http.StatusUnauthorized, resp.MsgUnauthorized},
		{fmt.Errorf("auth.SignUp: %w", errors.New("pool closed")), http.StatusInternalServerError, resp.MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			rr := httptest.NewRecorder()

			RenderError(rr, r, slogdiscard.NewDiscardLogger(), tt.err)

			require.Equal(t, tt.wantCode, rr.Code)

			var body resp.Response
			require.NoError(t, render.DecodeJSON(rr.Body, &body))
			assert.Equal(t, tt.wantMsg, body.Error)
		})
	}
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		ok      bool
		wantMsg string
	}{
		{name: "valid", body: `{"email":"a@example.com","password":"Str0ng-pass"}`, ok: true},
		{name: "broken json", body: `{"email":`, wantMsg: resp.MsgBadRequest},
		{name: "bad email", body: `{"email":"nope","password":"Str0ng-pass"}`, wantMsg: "field Email is not a valid email"},
		{name: "weak password", body: `{"email":"a@example.com","password":"weak"}`, wantMsg: resp.MsgPasswordNotValid},
	}

	v := validate.New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			var req signUpRequest
			ok := DecodeRequest(rr, r, slogdiscard.NewDiscardLogger(), v, &req)

			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, "a@example.com", req.Email)
				return
			}

			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var body resp.Response
			require.NoError(t, render.DecodeJSON(rr.Body, &body))
			assert.Equal(t, tt.wantMsg, body.Error)
		})
	}
}

func TestQueryToken(t *testing.T) {
	log := slogdiscard.NewDiscardLogger()

	rr := httptest.NewRecorder()
	token, ok := QueryToken(rr, httptest.NewRequest(http.MethodGet, "/confirm?token=abc", nil), log)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	rr = httptest.NewRecorder()
	_, ok = QueryToken(rr, httptest.NewRequest(http.MethodGet, "/confirm", nil), log)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSession_Missing(t *testing.T) {
	rr := httptest.NewRecorder()

	_, ok := Session(rr, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
