package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/classsync/internal/application/auth"
	"github.com/classsync/internal/pkg/validate"
	"github.com/classsync/internal/transport/http/middleware"
)

// AuthHandler serves the login code flow.
type AuthHandler struct {
	svc          auth.Service
	cookieMaxAge time.Duration
	secureCookie bool
}

func NewAuthHandler(svc auth.Service, cookieMaxAge time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, cookieMaxAge: cookieMaxAge, secureCookie: secureCookie}
}

func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req auth.SendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.IssueCode(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tok, err := h.svc.Verify(r.Context(), req.UserID, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	middleware.SetSessionCookie(w, tok, h.cookieMaxAge, h.secureCookie)
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	middleware.ClearSessionCookie(w, h.secureCookie)
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "logged out"})
}
