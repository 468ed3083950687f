package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Server accepts connections and hands each one to its own Worker.
type Server struct {
	cfg  Config
	site *Site

	// sem is nil when MaxConnections is 0 (unbounded).
	sem *semaphore.Weighted

	wg        sync.WaitGroup
	workersMu sync.Mutex
	workers   map[*Worker]struct{}
}

func NewServer(cfg Config, site *Site) *Server {
	s := &Server{
		cfg:     cfg,
		site:    site,
		workers: make(map[*Worker]struct{}),
	}
	if cfg.MaxConnections > 0 {
		s.sem = semaphore.NewWeighted(int64(cfg.MaxConnections))
	}
	return s
}

// ListenAndServe binds the configured port and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is done. Accept errors are logged and the
// loop continues. On return the listener is closed and every worker has
// finished.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log.Printf("I listening on %s", ln.Addr())

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	defer s.drain()

	for {
		if s.sem != nil {
			if err := s.sem.Acquire(ctx, 1); err != nil {
				ln.Close()
				return nil
			}
		}
		conn, err := ln.Accept()
		if err != nil {
			if s.sem != nil {
				s.sem.Release(1)
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("E accept error: %v", err)
			continue
		}
		connectionsAccepted.Inc()
		s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	w := NewWorker(conn, s.site, s.cfg)
	s.track(w, true)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.track(w, false)
		if s.sem != nil {
			defer s.sem.Release(1)
		}
		w.Start() // worker takes the ownership of |conn|
	}()
}

func (s *Server) track(w *Worker, add bool) {
	s.workersMu.Lock()
	defer s.workersMu.Unlock()
	if add {
		s.workers[w] = struct{}{}
	} else {
		delete(s.workers, w)
	}
}

// drain waits up to ShutdownTimeout for workers, then cancels the rest.
func (s *Server) drain() {
	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return
	case <-time.After(s.cfg.ShutdownTimeout.Duration):
	}

	s.workersMu.Lock()
	log.Printf("W shutdown timeout, cancelling %d workers", len(s.workers))
	for w := range s.workers {
		w.Cancel()
	}
	s.workersMu.Unlock()
	<-finished
}
