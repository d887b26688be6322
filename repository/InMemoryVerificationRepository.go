package repository

import (
	"context"
	"crypto/subtle"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"dvente/util"

	"github.com/rs/zerolog/log"
)

const (
	DefaultCodeTTL       = 5 * time.Minute
	DefaultSweepInterval = time.Minute
	DefaultCodeDigits    = 6
	DefaultShardCount    = 32
)

var ErrEmptyKey = errors.New("verification key is empty")

type codeEntry struct {
	code      string
	issuedAt  time.Time
	expiresAt time.Time
}

func (e codeEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

type codeShard struct {
	mu      sync.RWMutex
	entries map[string]codeEntry
}

// MemoryCodeStore is an in-process CodeStore. Keys are spread over shards so
// that unrelated keys never wait on the same lock. Nothing is persisted.
type MemoryCodeStore struct {
	shards   []*codeShard
	ttl      time.Duration
	interval time.Duration
	digits   int
	now      func() time.Time
	generate func(digits int) (string, error)

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

type CodeStoreOption func(*MemoryCodeStore)

func WithCodeTTL(ttl time.Duration) CodeStoreOption {
	return func(s *MemoryCodeStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithSweepInterval(interval time.Duration) CodeStoreOption {
	return func(s *MemoryCodeStore) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithCodeDigits(digits int) CodeStoreOption {
	return func(s *MemoryCodeStore) {
		if digits > 0 && digits <= util.MaxCodeDigits {
			s.digits = digits
		}
	}
}

func WithShardCount(n int) CodeStoreOption {
	return func(s *MemoryCodeStore) {
		if n > 0 {
			s.shards = newShards(n)
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) CodeStoreOption {
	return func(s *MemoryCodeStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodeGenerator replaces the crypto/rand backed generator.
func WithCodeGenerator(gen func(digits int) (string, error)) CodeStoreOption {
	return func(s *MemoryCodeStore) {
		if gen != nil {
			s.generate = gen
		}
	}
}

func NewMemoryCodeStore(opts ...CodeStoreOption) *MemoryCodeStore {
	s := &MemoryCodeStore{
		shards:   newShards(DefaultShardCount),
		ttl:      DefaultCodeTTL,
		interval: DefaultSweepInterval,
		digits:   DefaultCodeDigits,
		now:      time.Now,
		generate: util.GenerateRandomDigits,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newShards(n int) []*codeShard {
	shards := make([]*codeShard, n)
	for i := range shards {
		shards[i] = &codeShard{entries: make(map[string]codeEntry)}
	}
	return shards
}

func (s *MemoryCodeStore) shard(key string) *codeShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func validKey(key string) bool {
	return strings.TrimSpace(key) != ""
}

// Issue stores a new code for key and returns it. Any earlier code for the
// same key stops working immediately.
func (s *MemoryCodeStore) Issue(key string) (string, error) {
	if !validKey(key) {
		return "", ErrEmptyKey
	}

	code, err := s.generate(s.digits)
	if err != nil {
		return "", err
	}

	now := s.now()
	sh := s.shard(key)
	sh.mu.Lock()
	sh.entries[key] = codeEntry{
		code:      code,
		issuedAt:  now,
		expiresAt: now.Add(s.ttl),
	}
	sh.mu.Unlock()

	return code, nil
}

// Verify reports whether code matches the live entry for key. Expired entries
// are dropped on sight. A matching entry is left in place; callers Remove it.
func (s *MemoryCodeStore) Verify(key string, code string) bool {
	if !validKey(key) {
		return false
	}

	sh := s.shard(key)
	sh.mu.RLock()
	entry, ok := sh.entries[key]
	sh.mu.RUnlock()
	if !ok {
		return false
	}

	if entry.expired(s.now()) {
		s.removeIfExpired(sh, key)
		return false
	}

	return subtle.ConstantTimeCompare([]byte(entry.code), []byte(code)) == 1
}

// Remove deletes the entry for key. Missing keys are ignored.
func (s *MemoryCodeStore) Remove(key string) {
	sh := s.shard(key)
	sh.mu.Lock()
	delete(sh.entries, key)
	sh.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included until swept.
func (s *MemoryCodeStore) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.entries)
		sh.mu.RUnlock()
	}
	return total
}

// removeIfExpired re-reads the entry under the write lock so a code issued
// after the caller's read is never deleted.
func (s *MemoryCodeStore) removeIfExpired(sh *codeShard, key string) bool {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[key]
	if !ok || !entry.expired(s.now()) {
		return false
	}
	delete(sh.entries, key)
	return true
}

// Sweep deletes every expired entry and returns how many were removed.
// Each shard is scanned under its read lock, so writers to that shard wait
// for one pass over it; deletes then take the write lock one key at a time.
func (s *MemoryCodeStore) Sweep() int {
	removed := 0
	for _, sh := range s.shards {
		now := s.now()

		sh.mu.RLock()
		var stale []string
		for key, entry := range sh.entries {
			if entry.expired(now) {
				stale = append(stale, key)
			}
		}
		sh.mu.RUnlock()

		for _, key := range stale {
			if s.removeIfExpired(sh, key) {
				removed++
			}
		}
	}
	return removed
}

// Start runs Sweep every sweep interval until ctx is done or Stop is called.
// Calling Start on a running store does nothing.
func (s *MemoryCodeStore) Start(ctx context.Context) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.sweepLoop(ctx, done)
	log.Info().Dur("interval", s.interval).Dur("ttl", s.ttl).Msg("verification code sweeper started")
}

func (s *MemoryCodeStore) sweepLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("expired verification codes swept")
			}
		}
	}
}

// Stop halts the sweeper and waits for it to exit. It is safe to call more
// than once and on a store that was never started.
func (s *MemoryCodeStore) Stop() {
	s.lifecycle.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.lifecycle.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("verification code sweeper stopped")
}
