package session

import "time"

// StartReaper launches the background eviction loop. It is a no-op if the
// reaper is already running. The loop sweeps both tables every interval and
// exits promptly (within one tick) once StopReaper is called.
func (s *Store) StartReaper(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reaperStop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	s.reaperStop = stop
	s.reaperDone = done
	go s.reapLoop(interval, stop, done)
	s.logger.Info("store.reaper.started", "interval", interval.String())
}

// StopReaper signals the reaper loop and waits until it has exited. After
// StopReaper returns no further eviction passes run. Safe to call when the
// reaper was never started, and safe to call more than once.
func (s *Store) StopReaper() {
	s.mu.Lock()
	stop, done := s.reaperStop, s.reaperDone
	s.reaperStop, s.reaperDone = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
	s.logger.Info("store.reaper.stopped")
}

func (s *Store) reapLoop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep evicts every expired record. Expired sessions take their note
// namespaces and owned threads with them; threads also expire on their own
// independent TTL.
func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	var expiredSessions, expiredThreads int
	for id, sess := range s.sessions {
		if now.Sub(sess.LastAccessed) > sess.TTL {
			s.deleteSessionLocked(id)
			expiredSessions++
		}
	}
	for id, th := range s.threads {
		if now.Sub(th.LastAccessed) > th.TTL {
			delete(s.threads, id)
			expiredThreads++
		}
	}

	if expiredSessions > 0 || expiredThreads > 0 {
		s.logger.Info("store.reaper.swept",
			"sessions", expiredSessions,
			"threads", expiredThreads,
		)
	}
}
