package contextstore

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Service is the conversation context store. It reads and writes through the
// durable backend when reachable and degrades transparently to the in-process
// fallback when it is not. Reads never fail the caller.
type Service struct {
	logger   *slog.Logger
	durable  Backend
	fallback *MemoryBackend

	// durableUp records whether the construction-time probe reached the
	// durable backend. When it never did, the health probe keeps reporting
	// healthy from fallback mode.
	durableUp bool

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewService creates the store around an optional durable backend. A nil
// backend, or one that does not answer the construction-time probe, leaves
// the service running purely on the in-process fallback.
func NewService(log *slog.Logger, durable Backend) *Service {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("service", "contextstore"))

	durableUp := false
	if durable != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := durable.Ping(ctx); err != nil {
			log.Warn("durable context backend unreachable, using in-process fallback", slog.Any("error", err))
		} else {
			durableUp = true
		}
	} else {
		log.Warn("no durable context backend configured, using in-process fallback")
	}

	return &Service{
		logger:    log,
		durable:   durable,
		fallback:  NewMemoryBackend(),
		durableUp: durableUp,
		locks:     make(map[string]*sync.Mutex),
	}
}

// userLock serializes same-user read-modify-write cycles so two concurrent
// saves for one user cannot interleave and drop a turn pair. Writes from
// other process instances still race last-writer-wins on the stored blob.
func (s *Service) userLock(userID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[userID] = mu
	}
	return mu
}

// Get returns the stored turn sequence for the user, or an empty sequence if
// none exists or the durable backend is unreachable.
func (s *Service) Get(ctx context.Context, userID string) []Turn {
	if s.durable != nil {
		turns, err := s.durable.Get(ctx, userID)
		if err == nil {
			return turns
		}
		s.logger.Warn("context read fell back to memory", slog.String("user_id", userID), slog.Any("error", err))
	}
	turns, _ := s.fallback.Get(ctx, userID)
	return turns
}

// Save appends the user/assistant exchange with fresh timestamps, re-applies
// the turn cap, and persists with a refreshed TTL. It returns an error only
// when both the durable backend and the fallback fail.
func (s *Service) Save(ctx context.Context, userID, userText, assistantText string) error {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	turns := s.Get(ctx, userID)
	turns = append(turns, NewTurn(RoleUser, userText), NewTurn(RoleAssistant, assistantText))
	if len(turns) > MaxTurns {
		turns = turns[len(turns)-MaxTurns:]
	}

	if s.durable != nil {
		err := s.durable.Set(ctx, userID, turns)
		if err == nil {
			return nil
		}
		s.logger.Warn("context write fell back to memory", slog.String("user_id", userID), slog.Any("error", err))
	}
	return s.fallback.Set(ctx, userID, turns)
}

// Clear deletes the stored context. It succeeds vacuously when nothing was
// stored.
func (s *Service) Clear(ctx context.Context, userID string) error {
	var durableErr error
	if s.durable != nil {
		durableErr = s.durable.Delete(ctx, userID)
		if durableErr != nil {
			s.logger.Warn("durable context delete failed", slog.String("user_id", userID), slog.Any("error", durableErr))
		}
	}
	if err := s.fallback.Delete(ctx, userID); err != nil {
		return err
	}
	return durableErr
}

// Len reports the number of turns currently stored for the user.
func (s *Service) Len(ctx context.Context, userID string) int {
	return len(s.Get(ctx, userID))
}

// Healthy reports whether the store is usable. A service that never reached
// its durable backend stays healthy from the in-process fallback: the feature
// keeps working, only durability is gone. A backend that was reachable at
// startup and stopped answering is reported unhealthy.
func (s *Service) Healthy(ctx context.Context) bool {
	if !s.durableUp || s.durable == nil {
		return true
	}
	return s.durable.Ping(ctx) == nil
}

// Degraded reports whether reads and writes are currently served by the
// in-process fallback instead of the durable backend.
func (s *Service) Degraded(ctx context.Context) bool {
	if s.durable == nil {
		return true
	}
	return s.durable.Ping(ctx) != nil
}
