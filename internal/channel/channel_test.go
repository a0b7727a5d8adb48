package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{Username: "autoever", Password: "1234"}

func TestOutcome_Terminal(t *testing.T) {
	assert.True(t, Delivered.Terminal())
	assert.True(t, RecipientRejected.Terminal())
	assert.False(t, TransientFailure.Terminal())
	assert.False(t, Unexpected.Terminal())
	assert.Equal(t, "transient", TransientFailure.String())
}

func TestKakaoClient_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/kakaotalk-messages", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "autoever", user)
		assert.Equal(t, "1234", pass)

		var body kakaoRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "010-1234-5678", body.Phone)
		assert.Equal(t, "hello", body.Message)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	k := NewKakaoClient(srv.URL, testCreds, time.Second)
	assert.Equal(t, Delivered, k.Send(context.Background(), "010-1234-5678", "hello"))
}

func TestKakaoClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   Outcome
	}{
		{http.StatusOK, Delivered},
		{http.StatusBadRequest, RecipientRejected},
		{http.StatusUnauthorized, RecipientRejected},
		{http.StatusInternalServerError, TransientFailure},
		{http.StatusServiceUnavailable, TransientFailure},
		{http.StatusNotFound, Unexpected},
		{http.StatusTooManyRequests, Unexpected},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			k := NewKakaoClient(srv.URL, testCreds, time.Second)
			assert.Equal(t, tt.want, k.Send(context.Background(), "010-0000-0000", "x"))
		})
	}
}

func TestKakaoClient_TransportErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	k := NewKakaoClient(url, testCreds, 200*time.Millisecond)
	assert.Equal(t, TransientFailure, k.Send(context.Background(), "010-0000-0000", "x"))
}

func TestKakaoClient_TimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	k := NewKakaoClient(srv.URL, testCreds, 50*time.Millisecond)
	assert.Equal(t, TransientFailure, k.Send(context.Background(), "010-0000-0000", "x"))
}

func TestSMSClient_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sms", r.URL.Path)
		assert.Equal(t, "010-1234-5678", r.URL.Query().Get("phone"))
		user, pass, _ := r.BasicAuth()
		assert.Equal(t, "autoever", user)
		assert.Equal(t, "5678", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "hello", r.PostForm.Get("message"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"OK"}`))
	}))
	defer srv.Close()

	s := NewSMSClient(srv.URL, Credentials{Username: "autoever", Password: "5678"}, time.Second)
	assert.Equal(t, Delivered, s.Send(context.Background(), "010-1234-5678", "hello"))
}

func TestSMSClient_ResultMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Outcome
	}{
		{"ok", http.StatusOK, `{"result":"OK"}`, Delivered},
		{"non ok result", http.StatusOK, `{"result":"FAIL"}`, TransientFailure},
		{"garbage body", http.StatusOK, `not json`, TransientFailure},
		{"bad request", http.StatusBadRequest, ``, RecipientRejected},
		{"server error", http.StatusInternalServerError, ``, TransientFailure},
		{"not found", http.StatusNotFound, ``, Unexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := NewSMSClient(srv.URL, testCreds, time.Second)
			assert.Equal(t, tt.want, s.Send(context.Background(), "010-0000-0000", "x"))
		})
	}
}
