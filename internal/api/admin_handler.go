package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gunuduru/assignment-auth/internal/dto/req"
	"github.com/gunuduru/assignment-auth/internal/dto/resp"
	"github.com/gunuduru/assignment-auth/internal/errs"
)

type AdminProvider interface {
	ListUsers(ctx context.Context, q req.ListUsersQuery) (*resp.UserListResp, error)
	GetUser(ctx context.Context, id int64) (*resp.UserResp, error)
	UpdateUser(ctx context.Context, id int64, r req.UpdateUserReq) (*resp.UserResp, error)
	DeleteUser(ctx context.Context, id int64) error
	Statistics(ctx context.Context) (*resp.UserStatsResp, error)
}

type AuditProvider interface {
	List(ctx context.Context, page, size int) (*resp.AuditListResp, error)
}

type AdminHandler struct {
	svc    AdminProvider
	audits AuditProvider
}

func NewAdminHandler(svc AdminProvider, audits AuditProvider) *AdminHandler {
	return &AdminHandler{svc: svc, audits: audits}
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, errs.ErrUserNotFound)
		return 0, false
	}
	return id, true
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var q req.ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	page, err := h.svc.ListUsers(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("ok", page))
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("ok", user))
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var body req.UpdateUserReq
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), id, body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("user updated", user))
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) Statistics(c *gin.Context) {
	st, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("ok", st))
}

func (h *AdminHandler) ListAudits(c *gin.Context) {
	var q req.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}
	out, err := h.audits.List(c.Request.Context(), q.Page, q.Size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("ok", out))
}
