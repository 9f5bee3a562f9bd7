package sync

import (
	"bufio"
	"errors"
	"net"
	"sync"

	"sessionmeta/pkg/logger"
)

// Server accepts line-oriented TCP subscribers. Each gets a welcome line
// followed by one JSON line per broadcast; anything they send is ignored.
type Server struct {
	Addr string
	Hub  *Hub
	// LoadID reports the live index id for the welcome line. Optional.
	LoadID func() string
	Log    *logger.Logger

	mu     sync.Mutex
	ln     net.Listener
	closed bool
	wg     sync.WaitGroup
}

// ErrServerClosed is returned by Listen after Close.
var ErrServerClosed = errors.New("tcp sync: server closed")

func NewServer(addr string, hub *Hub, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{Addr: addr, Hub: hub, Log: log}
}

// Listen binds the listener and returns its address, so callers can bind
// ":0" and learn the port before serving.
func (s *Server) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return nil, ErrServerClosed
	}
	s.ln = ln
	s.mu.Unlock()
	s.Log.Info("tcp sync listening", "addr", ln.Addr().String())
	return ln.Addr(), nil
}

// Run listens and serves until Close. Closing before Run gets to listen
// makes it return nil straight away.
func (s *Server) Run() error {
	if _, err := s.Listen(); err != nil {
		if errors.Is(err, ErrServerClosed) {
			return nil
		}
		return err
	}
	return s.Serve()
}

func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("tcp sync: Serve called before Listen")
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.Log.Warn("tcp sync accept failed", "error", err)
			continue
		}

		loadID := ""
		if s.LoadID != nil {
			loadID = s.LoadID()
		}
		s.Hub.welcome(conn, loadID)
		s.Hub.Add(conn)
		s.Log.Debug("tcp subscriber connected", "remote", conn.RemoteAddr().String())

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer func() {
				s.Hub.Remove(c)
				s.Log.Debug("tcp subscriber disconnected", "remote", c.RemoteAddr().String())
			}()

			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}

// Close stops accepting, disconnects subscribers and waits for their
// goroutines to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	ln := s.ln
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.Hub.Close()
	s.wg.Wait()
	return err
}
