package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, sc *bufio.Scanner) sseEvent {
	t.Helper()
	var ev sseEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			ev.data = strings.TrimPrefix(line, "data:")
		case line == "" && ev.name != "":
			return ev
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return ev
}

func TestDispatchWatch_ReplaysThenStreams(t *testing.T) {
	env := newTestEnv(t)
	env.history.Add(model.DispatchTickResult{Fetched: 1})
	env.history.Add(model.DispatchTickResult{Fetched: 2})

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/admin/messages/stream?last_seq=1", nil)
	require.NoError(t, err)
	r.SetBasicAuth("admin", "1212")

	res, err := http.DefaultClient.Do(r)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/event-stream")

	sc := bufio.NewScanner(res.Body)

	ev := readEvent(t, sc)
	require.Equal(t, "tick", ev.name)
	var replayed model.DispatchTickResult
	require.NoError(t, json.Unmarshal([]byte(ev.data), &replayed))
	assert.Equal(t, int64(2), replayed.Seq)

	// the client is subscribed before replay, so a live result cannot be lost
	live := env.history.Add(model.DispatchTickResult{Fetched: 3})
	env.hub.Publish(live)

	for {
		ev = readEvent(t, sc)
		if ev.name == "ping" {
			continue
		}
		break
	}
	require.Equal(t, "tick", ev.name)
	var got model.DispatchTickResult
	require.NoError(t, json.Unmarshal([]byte(ev.data), &got))
	assert.Equal(t, int64(3), got.Seq)
	assert.Equal(t, 3, got.Fetched)

	cancel()
}

func TestDispatchWatch_ResetWhenTooOld(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 15; i++ {
		env.history.Add(model.DispatchTickResult{})
	}

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/admin/messages/stream?last_seq=2", nil)
	r.SetBasicAuth("admin", "1212")

	res, err := http.DefaultClient.Do(r)
	require.NoError(t, err)
	defer res.Body.Close()

	ev := readEvent(t, bufio.NewScanner(res.Body))
	assert.Equal(t, "reset", ev.name)
	cancel()
}
