package ratelimitx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/credit-intake/pkg/respx"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func newApp(rules ...Rule) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: respx.ErrorHandler})
	for _, r := range rules {
		app.Use(New(r))
	}
	app.Get("/", func(c *fiber.Ctx) error { return respx.OK(c, "ok", nil) })
	return app
}

func TestLimitReachedIsEnveloped(t *testing.T) {
	app := newApp(Rule{Name: "test", Max: 2})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status %d", i, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}

	var env respx.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Message != Message || env.Action != respx.ActionCancel || env.Success {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestSkipBypassesQuota(t *testing.T) {
	app := newApp(Rule{Name: "test", Max: 1, Skip: func(*fiber.Ctx) bool { return true }})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	}
}

func TestRedisStorageKeys(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	s := NewRedisStorage(rdb, "")
	if got := s.key("requester-create:1.2.3.4"); got != "ratelimit:requester-create:1.2.3.4" {
		t.Fatalf("key = %q", got)
	}

	// empty keys never reach redis
	if val, err := s.Get(""); val != nil || err != nil {
		t.Fatalf("Get(\"\") = %v, %v", val, err)
	}
	if err := s.Set("", []byte("1"), 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
