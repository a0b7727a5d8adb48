package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gunuduru/assignment-auth/internal/buffer"
	"github.com/gunuduru/assignment-auth/internal/dto/req"
	"github.com/gunuduru/assignment-auth/internal/dto/resp"
	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/internal/metrics"
	"github.com/gunuduru/assignment-auth/internal/middleware"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/gunuduru/assignment-auth/internal/service"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

type fakeAuth struct {
	registered []req.RegisterReq
	loginErr   error
}

func (f *fakeAuth) Register(_ context.Context, r req.RegisterReq) (*resp.RegisterResp, error) {
	for _, prev := range f.registered {
		if prev.Username == r.Username {
			return nil, errs.ErrUsernameTaken
		}
	}
	f.registered = append(f.registered, r)
	return &resp.RegisterResp{ID: int64(len(f.registered)), Username: r.Username, Name: r.Name}, nil
}

func (f *fakeAuth) Login(context.Context, req.LoginReq) (*resp.TokenResp, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &resp.TokenResp{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}, nil
}

func (f *fakeAuth) Refresh(context.Context, string) (*resp.TokenResp, error) {
	return nil, errs.ErrSessionExpired
}

func (f *fakeAuth) Logout(context.Context, int64) error { return nil }

func (f *fakeAuth) Profile(_ context.Context, id int64) (*resp.ProfileResp, error) {
	return &resp.ProfileResp{ID: id, Account: "kim01", SSN: "900101-*******", AdministrativeRegion: "서울특별시"}, nil
}

type fakeAdmin struct {
	users map[int64]resp.UserResp
}

func (f *fakeAdmin) ListUsers(_ context.Context, q req.ListUsersQuery) (*resp.UserListResp, error) {
	out := &resp.UserListResp{CurrentPage: q.Page, PageSize: q.Size, TotalElements: int64(len(f.users))}
	for _, u := range f.users {
		out.Users = append(out.Users, u)
	}
	return out, nil
}

func (f *fakeAdmin) GetUser(_ context.Context, id int64) (*resp.UserResp, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeAdmin) UpdateUser(ctx context.Context, id int64, r req.UpdateUserReq) (*resp.UserResp, error) {
	if !r.HasUpdates() {
		return nil, errs.ErrNoUpdates
	}
	return f.GetUser(ctx, id)
}

func (f *fakeAdmin) DeleteUser(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return errs.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeAdmin) Statistics(context.Context) (*resp.UserStatsResp, error) {
	return &resp.UserStatsResp{TotalUsers: int64(len(f.users))}, nil
}

type fakeBroadcast struct {
	pending int64
	calls   int
}

func (f *fakeBroadcast) ScheduleBroadcast(_ context.Context, bracket int, body string) (*resp.BroadcastResp, error) {
	f.calls++
	if bracket < 10 || bracket > 80 || bracket%10 != 0 {
		return nil, errs.ErrInvalidBracket
	}
	f.pending += 3
	return &resp.BroadcastResp{AgeGroup: bracket, TargetUserCount: 3, ScheduledMessageCount: 3, EstimatedStartTime: "immediate"}, nil
}

func (f *fakeBroadcast) PendingCount(context.Context) (int64, error) { return f.pending, nil }

type fakeScheduler struct {
	running bool
	tickErr error
}

func (f *fakeScheduler) Start() (bool, error) {
	was := f.running
	f.running = true
	return !was, nil
}

func (f *fakeScheduler) Stop() bool {
	was := f.running
	f.running = false
	return was
}

func (f *fakeScheduler) IsRunning() bool        { return f.running }
func (f *fakeScheduler) Interval() time.Duration { return time.Minute }
func (f *fakeScheduler) NextRun() time.Time      { return time.Time{} }

func (f *fakeScheduler) TriggerNow(context.Context) (model.DispatchTickResult, error) {
	if f.tickErr != nil {
		return model.DispatchTickResult{}, f.tickErr
	}
	return model.DispatchTickResult{Seq: 1, Fetched: 2, Deleted: 2}, nil
}

type fakeAudit struct {
	actions []string
}

func (f *fakeAudit) Record(_ context.Context, action string, _ int64, _ string) {
	f.actions = append(f.actions, action)
}

func (f *fakeAudit) List(_ context.Context, page, size int) (*resp.AuditListResp, error) {
	out := &resp.AuditListResp{CurrentPage: page, PageSize: size, TotalElements: int64(len(f.actions))}
	for i, a := range f.actions {
		out.Audits = append(out.Audits, model.AdminAudit{ID: int64(i + 1), Action: a})
	}
	return out, nil
}

type okHealth struct{}

func (okHealth) Health(context.Context) error { return nil }

type stubParser map[string]*service.UserClaims

func (s stubParser) ParseAccessToken(token string) (*service.UserClaims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errs.ErrTokenInvalid
}

type testEnv struct {
	router    *gin.Engine
	auth      *fakeAuth
	admin     *fakeAdmin
	broadcast *fakeBroadcast
	scheduler *fakeScheduler
	audit     *fakeAudit
	history   *buffer.TickHistory
	hub       *service.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{
		auth: &fakeAuth{},
		admin: &fakeAdmin{users: map[int64]resp.UserResp{
			1: {ID: 1, Username: "kim01"},
			2: {ID: 2, Username: "lee02"},
		}},
		broadcast: &fakeBroadcast{},
		scheduler: &fakeScheduler{},
		audit:     &fakeAudit{},
		history:   buffer.NewTickHistory(10),
		hub:       service.NewHub(metrics.NewNopObserver(), 8),
	}
	go env.hub.Run()
	t.Cleanup(env.hub.Stop)

	env.router = RegisterRoutes(Handlers{
		Auth:    NewAuthHandler(env.auth),
		Admin:   NewAdminHandler(env.admin, env.audit),
		Message: NewMessageHandler(env.broadcast, env.scheduler, env.history, env.audit, 20),
		Stream:  NewStreamHandler(env.hub, env.history, time.Second),
		Health:  NewHealthHandler(okHealth{}),
	}, rdb, RouterConfig{
		TokenParser: stubParser{
			"user-token": {UserID: 7, Username: "kim01", Role: "USER"},
		},
		Admin:             middleware.AdminCredentials{Username: "admin", Password: "1212"},
		RequestsPerSecond: 100,
	})
	return env
}

type reqOpt func(*http.Request)

func asAdmin(r *http.Request) { r.SetBasicAuth("admin", "1212") }

func bearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOpt) (*httptest.ResponseRecorder, resp.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	for _, o := range opts {
		o(r)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)

	var env resp.Envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}
