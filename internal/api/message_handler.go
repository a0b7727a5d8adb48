package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/gunuduru/assignment-auth/internal/dto/req"
	"github.com/gunuduru/assignment-auth/internal/dto/resp"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/gunuduru/assignment-auth/internal/service"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

type BroadcastProvider interface {
	ScheduleBroadcast(ctx context.Context, bracket int, body string) (*resp.BroadcastResp, error)
	PendingCount(ctx context.Context) (int64, error)
}

// Scheduler controls the periodic dispatch worker.
type Scheduler interface {
	Start() (bool, error)
	Stop() bool
	IsRunning() bool
	Interval() time.Duration
	NextRun() time.Time
	TriggerNow(ctx context.Context) (model.DispatchTickResult, error)
}

type TickHistoryReader interface {
	Recent(n int) []model.DispatchTickResult
	GetSince(lastSeq int64) ([]model.DispatchTickResult, bool)
}

const defaultRecentTicks = 20

type MessageHandler struct {
	broadcast     BroadcastProvider
	scheduler     Scheduler
	history       TickHistoryReader
	audit         service.AuditRecorder
	maxBodyLength int
}

func NewMessageHandler(broadcast BroadcastProvider, scheduler Scheduler, history TickHistoryReader, audit service.AuditRecorder, maxBodyLength int) *MessageHandler {
	return &MessageHandler{
		broadcast:     broadcast,
		scheduler:     scheduler,
		history:       history,
		audit:         audit,
		maxBodyLength: maxBodyLength,
	}
}

func (h *MessageHandler) ScheduleAgeGroup(c *gin.Context) {
	var body req.BroadcastReq
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}
	if h.maxBodyLength > 0 && utf8.RuneCountInString(body.Message) > h.maxBodyLength {
		c.JSON(http.StatusBadRequest, resp.Envelope{
			Code:    "VALIDATION_FAILED",
			Message: "request validation failed",
			Errors: []resp.FieldError{{
				Field:   "message",
				Message: fmt.Sprintf("must be at most %d characters", h.maxBodyLength),
			}},
		})
		return
	}

	out, err := h.broadcast.ScheduleBroadcast(c.Request.Context(), body.AgeGroup, body.Message)
	if err != nil {
		writeError(c, err)
		return
	}

	h.audit.Record(c.Request.Context(), model.AuditBroadcastSchedule, int64(out.AgeGroup),
		fmt.Sprintf("targets=%d scheduled=%d", out.TargetUserCount, out.ScheduledMessageCount))
	logger.Info("age group broadcast scheduled",
		zap.String("operator", service.GetOperator(c.Request.Context())),
		zap.Int("age_group", out.AgeGroup),
		zap.Int("scheduled", out.ScheduledMessageCount))
	c.JSON(http.StatusOK, resp.OK(fmt.Sprintf("%d messages scheduled", out.ScheduledMessageCount), out))
}

func (h *MessageHandler) Pending(c *gin.Context) {
	n, err := h.broadcast.PendingCount(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("ok", resp.PendingResp{PendingCount: n}))
}

func (h *MessageHandler) Stats(c *gin.Context) {
	limit := defaultRecentTicks
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	n, err := h.broadcast.PendingCount(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("ok", resp.DispatchStatsResp{
		Scheduler: h.status(),
		Pending:   n,
		Recent:    h.history.Recent(limit),
	}))
}

// Dispatch runs one tick immediately. The tick is detached from the request
// so a disconnecting client does not abort it halfway.
func (h *MessageHandler) Dispatch(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	result, err := h.scheduler.TriggerNow(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	h.audit.Record(c.Request.Context(), model.AuditDispatchTrigger, result.Seq,
		fmt.Sprintf("fetched=%d deleted=%d", result.Fetched, result.Deleted))
	logger.Info("manual dispatch tick",
		zap.String("operator", service.GetOperator(c.Request.Context())),
		zap.Int64("seq", result.Seq),
		zap.Int("deleted", result.Deleted))
	c.JSON(http.StatusOK, resp.OK("dispatch tick completed", result))
}

func (h *MessageHandler) StartScheduler(c *gin.Context) {
	started, err := h.scheduler.Start()
	if err != nil {
		writeError(c, err)
		return
	}
	msg := "scheduler started"
	if started {
		h.audit.Record(c.Request.Context(), model.AuditSchedulerStart, 0, "")
	} else {
		msg = "scheduler already running"
	}
	logger.Info(msg, zap.String("operator", service.GetOperator(c.Request.Context())))
	c.JSON(http.StatusOK, resp.OK(msg, h.status()))
}

func (h *MessageHandler) StopScheduler(c *gin.Context) {
	msg := "scheduler stopped"
	if h.scheduler.Stop() {
		h.audit.Record(c.Request.Context(), model.AuditSchedulerStop, 0, "")
	} else {
		msg = "scheduler not running"
	}
	logger.Info(msg, zap.String("operator", service.GetOperator(c.Request.Context())))
	c.JSON(http.StatusOK, resp.OK(msg, h.status()))
}

func (h *MessageHandler) SchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, resp.OK("ok", h.status()))
}

func (h *MessageHandler) status() resp.SchedulerStatusResp {
	return resp.SchedulerStatusResp{
		Running:  h.scheduler.IsRunning(),
		Interval: h.scheduler.Interval().String(),
		NextRun:  h.scheduler.NextRun(),
	}
}
