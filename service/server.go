package service

import (
	"context"
	"net"
	"net/http"

	"github.com/lucaspiller/n1core/core"
)

// Server hosts a single WebSocket endpoint that streams one running core's
// TraceEvents to however many clients connect; it owns no core state of its
// own, only the Broadcaster and the listener.
type Server struct {
	broadcaster *Broadcaster
	http        *http.Server
}

// NewServer builds a Server listening on addr. Start actually begins
// listening; no trace client can connect until then.
func NewServer(addr string) *Server {
	s := &Server{broadcaster: NewBroadcaster()}
	mux := http.NewServeMux()
	mux.Handle("/trace", s)
	s.http = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Sink returns a core.TraceSink that republishes every event to connected
// clients. Pass it as CoreConfig.Trace with CoreConfig.TracingEnabled set.
func (s *Server) Sink() core.TraceSink {
	return s.broadcaster.Broadcast
}

// Start begins serving in the background; it returns once the listener is
// up or an error occurs binding addr.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	go func() { _ = s.http.Serve(ln) }()
	return nil
}

// Shutdown gracefully stops the HTTP server and closes the broadcaster.
func (s *Server) Shutdown(ctx context.Context) error {
	s.broadcaster.Close()
	return s.http.Shutdown(ctx)
}

// SubscriptionCount reports how many trace clients are currently connected.
func (s *Server) SubscriptionCount() int {
	return s.broadcaster.SubscriptionCount()
}
