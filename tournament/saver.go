package tournament

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"pokerclock.com/director/internal/util"
	"pokerclock.com/director/logging"
)

var saverLogger = log.With().Str("logger_name", "tournament::saver").Logger()

// Saver throttles snapshot writes so the running clock (which reports
// every few seconds) does not hammer the persist store. Writes beyond
// the rate limit are held as pending and flushed by a background loop,
// last writer wins.
type Saver struct {
	persist PersistTournamentState
	code    string
	limiter *rate.Limiter

	mu      sync.Mutex
	pending *Snapshot
	end     bool
}

func NewSaver(persist PersistTournamentState, code string, minIntervalMs int) *Saver {
	interval := time.Duration(minIntervalMs) * time.Millisecond
	return &Saver{
		persist: persist,
		code:    code,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Start launches the trailing-flush loop.
func (s *Saver) Start() {
	s.mu.Lock()
	s.end = false
	s.mu.Unlock()
	go s.runFlushLoop()
}

// Stop flushes any pending snapshot and exits the loop.
func (s *Saver) Stop() {
	s.mu.Lock()
	s.end = true
	s.mu.Unlock()
	s.Flush()
}

// Request persists the snapshot immediately if the rate limit allows,
// otherwise keeps it as the pending write. Requests arriving after
// Stop are dropped; the store may already have removed the key.
func (s *Saver) Request(snapshot *Snapshot) {
	s.mu.Lock()
	if s.end {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	if s.limiter.Allow() {
		s.write(snapshot)
		return
	}
	s.mu.Lock()
	if !s.end {
		s.pending = snapshot
	}
	s.mu.Unlock()
}

// Flush writes the pending snapshot regardless of the rate limit.
func (s *Saver) Flush() {
	s.mu.Lock()
	snapshot := s.pending
	s.pending = nil
	s.mu.Unlock()
	if snapshot != nil {
		s.write(snapshot)
	}
}

func (s *Saver) runFlushLoop() {
	for {
		time.Sleep(1 * time.Second)
		s.mu.Lock()
		end := s.end
		snapshot := s.pending
		if snapshot != nil && s.limiter.Allow() {
			s.pending = nil
		} else {
			snapshot = nil
		}
		s.mu.Unlock()
		if snapshot != nil {
			s.write(snapshot)
		}
		if end {
			return
		}
	}
}

func (s *Saver) write(snapshot *Snapshot) {
	err := s.persist.Save(s.code, snapshot)
	if err != nil {
		// Persistence is best effort. The tournament keeps running.
		saverLogger.Error().Str(logging.TournamentCodeKey, s.code).Msgf("Could not save state: %s", err)
		return
	}
	util.Metrics.StateSaved()
}
