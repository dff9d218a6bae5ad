// Package ratelimitx builds per-IP fiber limiters whose 429 responses go
// through the shared error envelope.
package ratelimitx

import (
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

const (
	DefaultMax    = 10
	DefaultWindow = time.Minute

	// Message is the 429 message clients see.
	Message = "Too many requests, please try again later."
)

// Rule is one named quota. Rules with different names count separately.
type Rule struct {
	Name   string
	Max    int
	Window time.Duration
	// Storage is shared between instances when set. nil keeps counters in
	// process memory.
	Storage fiber.Storage
	// Skip excludes requests from the quota.
	Skip func(c *fiber.Ctx) bool
}

// New returns a limiter keyed by rule name and client IP.
func New(rule Rule) fiber.Handler {
	if rule.Max <= 0 {
		rule.Max = DefaultMax
	}
	if rule.Window <= 0 {
		rule.Window = DefaultWindow
	}
	if rule.Name == "" {
		rule.Name = "default"
	}

	return limiter.New(limiter.Config{
		Max:        rule.Max,
		Expiration: rule.Window,
		Storage:    rule.Storage,
		Next:       rule.Skip,
		KeyGenerator: func(c *fiber.Ctx) string {
			return rule.Name + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			logx.WithContext(c.UserContext()).WithFields(logx.Fields{
				"limiter": rule.Name,
				"ip":      c.IP(),
				"path":    c.Path(),
			}).Warn("Rate limit reached")
			return errx.TooManyRequests(Message)
		},
	})
}
