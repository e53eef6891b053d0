package services

import (
	"errors"
	"log"
	"sync"
	"time"
)

// SweepScheduler runs the overdue sweep on a fixed interval in-process, for
// deployments without an external cron. The sweep lease still guards against
// overlap with externally triggered runs.
type SweepScheduler struct {
	Sweeper  *SweepService
	Interval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewSweepScheduler(sweeper *SweepService, interval time.Duration) *SweepScheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &SweepScheduler{Sweeper: sweeper, Interval: interval}
}

// Start launches the background loop. Safe to call once.
func (s *SweepScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		log.Printf("[sweep-scheduler] Running every %s", s.Interval)
		for {
			select {
			case <-s.ticker.C:
				s.runOnce()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *SweepScheduler) runOnce() {
	summary, err := s.Sweeper.SweepOverdueStages()
	if err != nil {
		if errors.Is(err, ErrSweepInProgress) {
			log.Println("[sweep-scheduler] Skipped run: sweep already in progress")
			return
		}
		log.Printf("[sweep-scheduler] Sweep failed: %v", err)
		return
	}
	log.Printf("[sweep-scheduler] %s", summary.Message)
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
}
