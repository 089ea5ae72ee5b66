// Package observer serves the read-only observer endpoints: a bootstrap
// handler describing the world and a WebSocket that streams per-tick status
// and accepts viewpoint updates. Connections are restricted to loopback.
package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"voxelforge.dev/internal/observerproto"
)

// BootstrapFunc builds the bootstrap response at request time so the tick
// counter is current.
type BootstrapFunc func() observerproto.BootstrapResponse

type session struct {
	id  uint64
	out chan []byte
}

type Server struct {
	bootstrap BootstrapFunc
	log       *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu       sync.Mutex
	sessions map[uint64]*session

	views chan [3]float64
}

func NewServer(bootstrap BootstrapFunc, logger *log.Logger) *Server {
	return &Server{
		bootstrap: bootstrap,
		log:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		sessions: make(map[uint64]*session),
		views:    make(chan [3]float64, 64),
	}
}

// Views delivers viewpoint updates sent by observer clients. The engine loop
// drains it each tick; the newest position wins.
func (s *Server) Views() <-chan [3]float64 { return s.views }

// Broadcast fans a status message out to every connected observer. Slow
// clients get dropped messages, never a blocked engine loop.
func (s *Server) Broadcast(msg observerproto.StatusMsg) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		select {
		case sess.out <- b:
		default:
		}
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.bootstrap())
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := &session{
			id:  s.nextID.Add(1),
			out: make(chan []byte, 16),
		}
		s.mu.Lock()
		s.sessions[sess.id] = sess
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.sessions, sess.id)
			s.mu.Unlock()
		}()

		s.log.Printf("observer %d connected from %s", sess.id, r.RemoteAddr)

		// Writer goroutine: drains the session's outbound queue.
		done := make(chan struct{})
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-done:
					writeErr <- nil
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: VIEW messages steer the streaming center.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var view observerproto.ViewMsg
			if err := json.Unmarshal(msg, &view); err != nil {
				s.closeWith(conn, websocket.ClosePolicyViolation, "bad message")
				break
			}
			if view.Type != "VIEW" {
				continue
			}
			select {
			case s.views <- view.Pos:
			default:
				// Engine loop is behind; newer updates will follow.
			}
		}

		close(done)
		s.closeWith(conn, websocket.CloseNormalClosure, "bye")

		// Best-effort wait for the writer so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		s.log.Printf("observer %d disconnected", sess.id)
	}
}

func (s *Server) closeWith(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
