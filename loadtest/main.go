package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gunuduru/assignment-auth/client"
	"github.com/gunuduru/assignment-auth/internal/dto/resp"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/gunuduru/assignment-auth/pkg/logger"
)

// Configuration
var (
	baseURL     = flag.String("url", "http://localhost:8080", "Server base URL")
	adminUser   = flag.String("admin-user", "admin", "Admin basic auth user")
	adminPass   = flag.String("admin-pass", "1212", "Admin basic auth password")
	totalUsers  = flag.Int("users", 1000, "Users to register")
	concurrency = flag.Int("c", 50, "Concurrent registrations")
	ageGroup    = flag.Int("age", 30, "Age group to broadcast to")
	message     = flag.String("message", "부하 테스트 메시지입니다.", "Broadcast body")
	timeout     = flag.Duration("timeout", 30*time.Minute, "Give up waiting for the queue to drain after this long")
)

// Metrics
var (
	registered     int64
	registerErrors int64
)

func main() {
	flag.Parse()
	logger.InitLogger("dev")

	fmt.Printf("🚀 Starting Load Test\n")
	fmt.Printf("   Target: %s\n", *baseURL)
	fmt.Printf("   Users: %d (age group %d)\n", *totalUsers, *ageGroup)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rc := resty.New().SetBaseURL(*baseURL).SetTimeout(10 * time.Second)

	start := time.Now()
	seedUsers(ctx, rc)
	fmt.Printf("✅ Registered %d users in %v (%d errors)\n",
		atomic.LoadInt64(&registered), time.Since(start).Round(time.Millisecond), atomic.LoadInt64(&registerErrors))

	var scheduled struct {
		resp.Envelope
		Data resp.BroadcastResp `json:"data"`
	}
	res, err := rc.R().
		SetContext(ctx).
		SetBasicAuth(*adminUser, *adminPass).
		SetBody(map[string]any{"ageGroup": *ageGroup, "message": *message}).
		SetResult(&scheduled).
		Post("/api/admin/messages/age-group")
	if err != nil || res.IsError() {
		fmt.Printf("Broadcast failed: %v %s\n", err, res.String())
		os.Exit(1)
	}
	fmt.Printf("📨 Scheduled %d messages, estimated start %s\n",
		scheduled.Data.ScheduledMessageCount, scheduled.Data.EstimatedStartTime)

	watchDrain(ctx)
}

func seedUsers(ctx context.Context, rc *resty.Client) {
	run := rand.Intn(10000)
	birthYear := time.Now().Year() - *ageGroup - 5
	selector := '1'
	if birthYear >= 2000 {
		selector = '3'
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				body := map[string]string{
					"username":    fmt.Sprintf("lt%04d%05d", run, i),
					"password":    "Load!test1",
					"name":        "부하테스트",
					"ssn":         fmt.Sprintf("%02d0101-%c%06d", birthYear%100, selector, (run*1000+i)%1000000),
					"phoneNumber": fmt.Sprintf("010-%04d-%04d", run, i%10000),
					"address":     "서울특별시 중구 세종대로 110",
				}
				res, err := rc.R().SetContext(ctx).SetBody(body).Post("/api/auth/register")
				if err != nil || res.IsError() {
					if atomic.AddInt64(&registerErrors, 1) == 1 {
						fmt.Printf("Error registering: %v %s\n", err, res.String())
					}
					continue
				}
				atomic.AddInt64(&registered, 1)
			}
		}()
	}

	for i := 0; i < *totalUsers; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()
}

// watchDrain prints every dispatch tick until the queue is empty.
func watchDrain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	var delivered, rejected int64
	start := time.Now()
	w := client.NewWatcher(client.Options{Addr: *baseURL, Username: *adminUser, Password: *adminPass})
	_ = w.Run(ctx, func(r model.DispatchTickResult) {
		delivered += int64(r.Delivered)
		rejected += int64(r.Rejected)
		fmt.Printf("[%s] tick #%d | fetched: %d | kakao: %d | sms: %d | deleted: %d | remaining: %d | stop: %s\n",
			r.StartedAt.Format("15:04:05"), r.Seq, r.Fetched, r.PrimaryAttempts, r.SecondaryAttempts,
			r.Deleted, r.Remaining, r.StopReason)
		if r.Remaining == 0 && !r.Aborted {
			cancel()
		}
	})

	elapsed := time.Since(start)
	fmt.Printf("🏁 Delivered %d, rejected %d in %v (%.1f msg/min)\n",
		delivered, rejected, elapsed.Round(time.Second), float64(delivered)/elapsed.Minutes())
}
