package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCodeRateMax    = 5
	DefaultVerifyRateMax  = 10
	DefaultCodeRateWindow = time.Minute
	DefaultBanDuration    = 10 * time.Minute

	storageCleanupInterval = 5 * time.Minute
)

type storedValue struct {
	val []byte
	exp time.Time
}

// IPBanStorage is the limiter's fiber.Storage plus a list of temporarily banned IPs.
type IPBanStorage struct {
	mu      sync.RWMutex
	entries map[string]storedValue
	bans    map[string]time.Time
	banFor  time.Duration
	now     func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewIPBanStorage starts a storage whose cleanup goroutine runs until Close.
func NewIPBanStorage(banFor time.Duration) *IPBanStorage {
	if banFor <= 0 {
		banFor = DefaultBanDuration
	}
	s := &IPBanStorage{
		entries: make(map[string]storedValue),
		bans:    make(map[string]time.Time),
		banFor:  banFor,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go s.cleanupLoop(storageCleanupInterval)
	return s
}

func (s *IPBanStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[key]
	if !ok || (!v.exp.IsZero() && s.now().After(v.exp)) {
		return nil, nil
	}
	return v.val, nil
}

func (s *IPBanStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	v := storedValue{val: append([]byte(nil), val...)}
	if exp > 0 {
		v.exp = s.now().Add(exp)
	}

	s.mu.Lock()
	s.entries[key] = v
	s.mu.Unlock()
	return nil
}

func (s *IPBanStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	delete(s.bans, key)
	return nil
}

func (s *IPBanStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]storedValue)
	s.bans = make(map[string]time.Time)
	return nil
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (s *IPBanStorage) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	return nil
}

// Ban blocks ip for the configured ban duration.
func (s *IPBanStorage) Ban(ip string) {
	s.mu.Lock()
	s.bans[ip] = s.now().Add(s.banFor)
	s.mu.Unlock()
}

func (s *IPBanStorage) IsBanned(ip string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	until, ok := s.bans[ip]
	return ok && s.now().Before(until)
}

func (s *IPBanStorage) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.purge()
		}
	}
}

// purge drops expired limiter entries and lifted bans.
func (s *IPBanStorage) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, v := range s.entries {
		if !v.exp.IsZero() && now.After(v.exp) {
			delete(s.entries, key)
		}
	}
	for ip, until := range s.bans {
		if now.After(until) {
			delete(s.bans, ip)
		}
	}
}

// NewCodeRateLimiter guards the code-sending routes: maxRequests per window
// and IP, and a temporary ban for clients that hit the limit. The returned
// storage must be closed on shutdown.
func NewCodeRateLimiter(maxRequests int, window, banFor time.Duration) (fiber.Handler, *IPBanStorage) {
	if maxRequests <= 0 {
		maxRequests = DefaultCodeRateMax
	}
	if window <= 0 {
		window = DefaultCodeRateWindow
	}
	storage := NewIPBanStorage(banFor)

	limitHandler := limiter.New(limiter.Config{
		Max:        maxRequests,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			storage.Ban(c.IP())
			log.Warn().Str("ip", c.IP()).Str("path", c.Path()).Msg("code rate limit reached, ip banned")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many code requests, please slow down",
			})
		},
		Storage: storage,
	})

	handler := func(c *fiber.Ctx) error {
		if storage.IsBanned(c.IP()) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "ip banned",
				"message": "your IP has been temporarily banned for exceeding rate limits",
			})
		}
		return limitHandler(c)
	}
	return handler, storage
}
