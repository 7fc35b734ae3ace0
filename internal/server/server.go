// Package server exposes a simulator over a websocket. One room loop owns
// the simulator: it applies client messages, ticks at a fixed rate and
// broadcasts changed frames to every connected client.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/verlet/internal/models"
	"github.com/san-kum/verlet/internal/sim"
)

const (
	DefaultTickHz      = 60
	DefaultBroadcastHz = 30

	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 25 * time.Second
	readLimit   = 1 << 20
	sendBuffer  = 64
	inboxBuffer = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Options struct {
	Scene       string
	Dt          float64
	TickHz      int
	BroadcastHz int
	Logger      *log.Logger
}

// Server is an http.Handler serving /ws, /frame and /healthz.
type Server struct {
	sim            *sim.Simulator
	scene          string
	dt             float64
	tickHz         int
	broadcastEvery int
	logger         *log.Logger

	inbox   chan any
	done    chan struct{}
	clients map[uint64]*client
	nextID  atomic.Uint64
	frame   atomic.Pointer[[]byte]
	dirty   bool
	mux     *http.ServeMux
}

// room loop messages
type (
	join    struct{ c *client }
	leave   struct{ id uint64 }
	inbound struct {
		id  uint64
		raw []byte
	}
)

func New(s *sim.Simulator, opts Options) *Server {
	if opts.TickHz <= 0 {
		opts.TickHz = DefaultTickHz
	}
	if opts.BroadcastHz <= 0 || opts.BroadcastHz > opts.TickHz {
		opts.BroadcastHz = min(DefaultBroadcastHz, opts.TickHz)
	}
	if opts.Dt <= 0 {
		opts.Dt = 1 / float64(opts.TickHz)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	srv := &Server{
		sim:            s,
		scene:          opts.Scene,
		dt:             opts.Dt,
		tickHz:         opts.TickHz,
		broadcastEvery: opts.TickHz / opts.BroadcastHz,
		logger:         opts.Logger,
		inbox:          make(chan any, inboxBuffer),
		done:           make(chan struct{}),
		clients:        make(map[uint64]*client),
		dirty:          true,
		mux:            http.NewServeMux(),
	}
	srv.mux.HandleFunc("/ws", srv.handleWS)
	srv.mux.HandleFunc("/frame", srv.handleFrame)
	srv.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return srv
}

func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { srv.mux.ServeHTTP(w, r) }

// Run ticks the room until ctx is done. It must be called once.
func (srv *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(srv.tickHz))
	defer ticker.Stop()
	defer close(srv.done)
	defer srv.closeAll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-srv.inbox:
			srv.handle(msg)
		case <-ticker.C:
			srv.step()
		}
	}
}

// ListenAndServe runs the room and an HTTP server on addr until ctx is done.
func (srv *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: srv}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		srv.logger.Info("listening", "addr", ln.Addr().String(), "ws", "/ws")
		if err := hs.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdown)
	})
	return g.Wait()
}

func (srv *Server) handle(msg any) {
	switch m := msg.(type) {
	case join:
		srv.clients[m.c.id] = m.c
		srv.logger.Info("client joined", "client", m.c.id, "clients", len(srv.clients))
		welcome, err := Encode(MsgWelcome, WelcomeMsg{Client: m.c.id, Scene: srv.scene, Shapes: models.Names()})
		if err == nil {
			m.c.send(welcome)
		}
		if f := srv.frame.Load(); f != nil {
			m.c.send(*f)
		}
	case leave:
		if c, ok := srv.clients[m.id]; ok {
			c.close()
			delete(srv.clients, m.id)
			srv.logger.Info("client left", "client", m.id, "clients", len(srv.clients))
		}
	case inbound:
		cmd, err := decode(m.raw)
		if err == nil {
			err = cmd(srv.sim)
		}
		if err != nil {
			srv.logger.Warn("message rejected", "client", m.id, "err", err)
			srv.sendError(m.id, err)
		}
	}
}

func (srv *Server) sendError(id uint64, err error) {
	c, ok := srv.clients[id]
	if !ok {
		return
	}
	if b, e := Encode(MsgError, ErrorMsg{Message: err.Error()}); e == nil {
		c.send(b)
	}
}

func (srv *Server) step() {
	f, err := srv.sim.Tick(srv.dt)
	if err != nil {
		srv.logger.Warn("tick rejected edits", "tick", f.Tick, "err", err)
		if b, e := Encode(MsgError, ErrorMsg{Message: err.Error()}); e == nil {
			srv.broadcast(b)
		}
	}
	srv.dirty = srv.dirty || f.Changed
	if !srv.dirty || f.Tick%uint64(srv.broadcastEvery) != 0 {
		return
	}
	b, err := Encode(MsgFrame, f)
	if err != nil {
		srv.logger.Error("frame not encoded", "tick", f.Tick, "err", err)
		return
	}
	srv.frame.Store(&b)
	srv.broadcast(b)
	srv.dirty = false
}

func (srv *Server) broadcast(b []byte) {
	for id, c := range srv.clients {
		if !c.send(b) {
			srv.logger.Warn("client too slow, dropping", "client", id)
			c.close()
			delete(srv.clients, id)
		}
	}
}

func (srv *Server) closeAll() {
	for id, c := range srv.clients {
		c.close()
		delete(srv.clients, id)
	}
}

// handleFrame serves the last broadcast frame as JSON.
func (srv *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	f := srv.frame.Load()
	if f == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	var env Envelope
	if err := json.Unmarshal(*f, &env); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(env.Data)
}

func (srv *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	c := newClient(srv.nextID.Add(1), conn)
	srv.logger.Debug("connection opened", "client", c.id, "remote", r.RemoteAddr)
	go c.writePump()
	// A join buffered after the room loop stopped is never handled.
	go func() {
		select {
		case <-srv.done:
			c.close()
		case <-c.done:
		}
	}()
	if !srv.post(join{c}) {
		c.close()
		return
	}
	c.readPump(srv.inbox)
	srv.post(leave{c.id})
}

// post hands msg to the room loop unless it has stopped.
func (srv *Server) post(msg any) bool {
	select {
	case srv.inbox <- msg:
		return true
	case <-srv.done:
		return false
	}
}
