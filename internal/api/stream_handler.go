package api

import (
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gunuduru/assignment-auth/internal/service"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

const streamClientBuffer = 128

type StreamHandler struct {
	hub       *service.Hub
	history   TickHistoryReader
	heartbeat time.Duration
}

func NewStreamHandler(hub *service.Hub, history TickHistoryReader, heartbeat time.Duration) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &StreamHandler{
		hub:       hub,
		history:   history,
		heartbeat: heartbeat,
	}
}

// DispatchWatch streams tick results as server-sent events. A client that
// reconnects with last_seq first receives the results it missed, or a
// "reset" event when they have already left the history.
func (h *StreamHandler) DispatchWatch(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	var lastSeq int64
	if s := c.Query("last_seq"); s != "" {
		lastSeq, _ = strconv.ParseInt(s, 10, 64)
	}

	operator := service.GetOperator(c.Request.Context())
	logger.Info("dispatch stream client connected",
		zap.String("operator", operator),
		zap.String("ip", c.ClientIP()),
		zap.Int64("last_seq", lastSeq),
	)

	client, ok := h.hub.Subscribe(streamClientBuffer)
	if !ok {
		c.SSEvent("close", "shutting_down")
		return
	}
	defer h.hub.Unsubscribe(client)

	maxSentSeq := lastSeq
	if lastSeq > 0 {
		missed, ok := h.history.GetSince(lastSeq)
		if ok {
			for _, r := range missed {
				c.SSEvent("tick", r)
				maxSentSeq = r.Seq
			}
		} else {
			c.SSEvent("reset", "seq_too_old")
		}
	}
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case r, ok := <-client.Send:
			if !ok {
				return false
			}
			// already replayed from history
			if r.Seq <= maxSentSeq {
				return true
			}
			c.SSEvent("tick", r)
			maxSentSeq = r.Seq
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", "pong")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	logger.Info("dispatch stream client disconnected", zap.String("operator", operator))
}
