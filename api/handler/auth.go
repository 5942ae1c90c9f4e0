package handler

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskdeck/backend/api/transport"
	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/pkg/httpcontext"
	"github.com/taskdeck/backend/pkg/validate"
	authUC "github.com/taskdeck/backend/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc     *authUC.UseCase
	tokens *authUC.TokenIssuer
}

func NewAuthHandler(uc *authUC.UseCase, tokens *authUC.TokenIssuer, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		tokens:      tokens,
	}
}

// @Summary Register a new account
// @Tags auth
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) Signup(ctx *fasthttp.RequestCtx) {
	var req transport.SignupRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalidPayload(ctx)
		return
	}
	if result := validate.Signup(req.FullName, req.Email, req.Password, req.ConfirmPassword); !result.OK() {
		h.respondValidation(ctx, result)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, session, err := h.uc.SignUp(stdCtx, req.Email, req.Password, req.FullName)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSession(ctx, http.StatusCreated, user, session)
}

// @Summary Sign in with email and password
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalidPayload(ctx)
		return
	}
	if result := validate.Login(req.Email, req.Password); !result.OK() {
		h.respondValidation(ctx, result)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, session, err := h.uc.SignIn(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSession(ctx, http.StatusOK, user, session)
}

// @Summary Revoke the current session
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	sessionID := string(ctx.Request.Header.Peek("X-Session-ID"))
	if sessionID == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing session", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.SignOut(stdCtx, sessionID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Extend the current session
// @Tags auth
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	sessionID := string(ctx.Request.Header.Peek("X-Session-ID"))
	if sessionID == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing session", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.RefreshSession(stdCtx, sessionID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	token, err := h.tokens.Issue(session)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.SessionResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	})
}

// @Summary Request a password-reset token
// @Tags auth
// @Router /api/v1/auth/reset [post]
func (h *AuthHandler) RequestReset(ctx *fasthttp.RequestCtx) {
	var req transport.ResetRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalidPayload(ctx)
		return
	}
	if result := validate.Reset(req.Email); !result.OK() {
		h.respondValidation(ctx, result)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	// there is no mailer wired up; the token lands in the service log
	// and the response stays identical for known and unknown addresses
	if _, err := h.uc.RequestPasswordReset(stdCtx, req.Email); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, nil)
}

// @Summary Redeem a password-reset token
// @Tags auth
// @Router /api/v1/auth/reset/confirm [post]
func (h *AuthHandler) ConfirmReset(ctx *fasthttp.RequestCtx) {
	var req transport.ResetConfirmRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Token == "" {
		h.respondInvalidPayload(ctx)
		return
	}
	if utf8.RuneCountInString(req.Password) < 6 {
		h.respondValidation(ctx, validate.Result{{Field: "password", Message: "Password must be at least 6 characters"}})
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.ConfirmPasswordReset(stdCtx, req.Token, req.Password); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

func (h *AuthHandler) respondSession(ctx *fasthttp.RequestCtx, status int, user *domain.User, session *domain.Session) {
	token, err := h.tokens.Issue(session)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, status, transport.SessionResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      *user,
	})
}
