package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gunuduru/assignment-auth/internal/dto/req"
	"github.com/gunuduru/assignment-auth/internal/dto/resp"
	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/internal/service"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

type AuthProvider interface {
	Register(ctx context.Context, r req.RegisterReq) (*resp.RegisterResp, error)
	Login(ctx context.Context, r req.LoginReq) (*resp.TokenResp, error)
	Refresh(ctx context.Context, refreshToken string) (*resp.TokenResp, error)
	Logout(ctx context.Context, userID int64) error
	Profile(ctx context.Context, userID int64) (*resp.ProfileResp, error)
}

type AuthHandler struct {
	svc AuthProvider
}

func NewAuthHandler(svc AuthProvider) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var body req.RegisterReq
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}

	out, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp.OK("registered", out))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body req.LoginReq
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("logged in", tokens))
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var body req.RefreshReq
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}

	tokens, err := h.svc.Refresh(c.Request.Context(), body.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("token refreshed", tokens))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	op := service.GetOperatorInfo(c.Request.Context())
	if op == nil {
		writeError(c, errs.ErrTokenInvalid)
		return
	}

	if err := h.svc.Logout(c.Request.Context(), op.UserID); err != nil {
		// the access token expires on its own; the client still gets logged out
		logger.Error("logout failed", zap.Int64("user_id", op.UserID), zap.Error(err))
	}
	c.JSON(http.StatusOK, resp.OK("logged out", nil))
}

func (h *AuthHandler) Profile(c *gin.Context) {
	op := service.GetOperatorInfo(c.Request.Context())
	if op == nil {
		writeError(c, errs.ErrTokenInvalid)
		return
	}

	profile, err := h.svc.Profile(c.Request.Context(), op.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("ok", profile))
}
