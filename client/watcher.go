// Package client consumes the admin dispatch stream from another Go process,
// resuming by sequence number across reconnects.
package client

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gunuduru/assignment-auth/internal/dto/resp"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

const (
	streamPath = "/api/admin/messages/stream"
	statsPath  = "/api/admin/messages/stats"
)

type Options struct {
	Addr string
	// Basic auth with the admin credentials, or Token for an ADMIN bearer token.
	Username string
	Password string
	Token    string

	// HeartbeatTimeout drops a connection that has been silent this long.
	HeartbeatTimeout time.Duration
	MaxBackoff       time.Duration
	// ResyncLimit is how many recent results are fetched after a reset.
	ResyncLimit int
}

type Handler func(model.DispatchTickResult)

type Watcher struct {
	opts    Options
	http    *http.Client
	rest    *resty.Client
	lastSeq atomic.Int64
}

func NewWatcher(opts Options) *Watcher {
	if opts.HeartbeatTimeout <= 0 {
		opts.HeartbeatTimeout = 45 * time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	if opts.ResyncLimit <= 0 {
		opts.ResyncLimit = 100
	}
	rest := resty.New().SetBaseURL(opts.Addr).SetTimeout(10 * time.Second)
	if opts.Token != "" {
		rest.SetAuthToken(opts.Token)
	} else {
		rest.SetBasicAuth(opts.Username, opts.Password)
	}
	return &Watcher{
		opts: opts,
		http: &http.Client{Timeout: 0},
		rest: rest,
	}
}

// LastSeq is the sequence number of the last result handed to the handler.
func (w *Watcher) LastSeq() int64 {
	return w.lastSeq.Load()
}

// Run streams until ctx is done, reconnecting with jittered exponential
// backoff. Each result is delivered at most once and in sequence order.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	backoff := time.Second
	for {
		err := w.stream(ctx, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, errUnauthorized) {
			return err
		}
		if err == nil {
			// the server ended the stream cleanly; start over from the shortest delay
			backoff = time.Second
		}

		jitter := time.Duration(rand.Int63n(int64(backoff/2) + 1))
		logger.Warn("dispatch stream disconnected", zap.Error(err), zap.Duration("retry_in", backoff+jitter))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff + jitter):
		}
		backoff = min(backoff*2, w.opts.MaxBackoff)
	}
}

var errUnauthorized = errors.New("dispatch stream: unauthorized")

func (w *Watcher) authorize(req *http.Request) {
	if w.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+w.opts.Token)
		return
	}
	req.SetBasicAuth(w.opts.Username, w.opts.Password)
}

func (w *Watcher) stream(ctx context.Context, handle Handler) error {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	url := fmt.Sprintf("%s%s?last_seq=%d", w.opts.Addr, streamPath, w.LastSeq())
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	w.authorize(req)
	req.Header.Set("Accept", "text/event-stream")

	res, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (%d)", errUnauthorized, res.StatusCode)
	case res.StatusCode != http.StatusOK:
		return fmt.Errorf("dispatch stream: unexpected status %d", res.StatusCode)
	}

	// watchdog for heartbeats
	watchdog := time.AfterFunc(w.opts.HeartbeatTimeout, func() {
		logger.Warn("dispatch stream heartbeat timeout, reconnecting")
		cancel()
	})
	defer watchdog.Stop()

	scanner := bufio.NewScanner(res.Body)
	var eventType string
	var data bytes.Buffer

	for scanner.Scan() {
		watchdog.Reset(w.opts.HeartbeatTimeout)
		line := scanner.Text()

		if line != "" {
			switch {
			case strings.HasPrefix(line, "event:"):
				eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			}
			continue
		}

		switch eventType {
		case "tick":
			var r model.DispatchTickResult
			if err := json.Unmarshal(data.Bytes(), &r); err != nil {
				logger.Error("failed to decode tick result", zap.Error(err))
			} else {
				w.deliver(r, handle)
			}
		case "reset":
			logger.Warn("dispatch stream reset, resyncing from recent history", zap.Int64("last_seq", w.LastSeq()))
			if err := w.resync(ctx, handle); err != nil {
				logger.Error("dispatch stream resync failed", zap.Error(err))
			}
		case "close":
			return nil
		}
		eventType = ""
		data.Reset()
	}
	return scanner.Err()
}

func (w *Watcher) deliver(r model.DispatchTickResult, handle Handler) {
	if r.Seq <= w.LastSeq() {
		return
	}
	handle(r)
	w.lastSeq.Store(r.Seq)
}

// resync replays whatever part of the gap is still in the server's recent history.
func (w *Watcher) resync(ctx context.Context, handle Handler) error {
	var envelope struct {
		resp.Envelope
		Data resp.DispatchStatsResp `json:"data"`
	}
	res, err := w.rest.R().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprint(w.opts.ResyncLimit)).
		SetResult(&envelope).
		Get(statsPath)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("stats request failed: %s", res.Status())
	}

	recent := envelope.Data.Recent
	slices.SortFunc(recent, func(a, b model.DispatchTickResult) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	for _, r := range recent {
		w.deliver(r, handle)
	}
	return nil
}
