// Package watch provides a websocket endpoint streaming events to
// registered clients. A client sends a single registration request
// as text message and then receives a stream of JSON encoded events.
package watch

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/mandelsoft/goutils/matcher"
	"github.com/mandelsoft/goutils/sliceutils"
	"sigs.k8s.io/yaml"
)

type EventHandler[E any] interface {
	HandleEvent(e E)
}

type Registry[R any, E any] interface {
	RegisterWatchHandler(r R, h EventHandler[E])
	UnregisterWatchHandler(r R, h EventHandler[E])
}

func WatchHttpHandler[R, E any](r Registry[R, E]) *RequestHandler[R, E] {
	return &RequestHandler[R, E]{registry: r}
}

type RequestHandler[R, E any] struct {
	lock        sync.Mutex
	registry    Registry[R, E]
	connections []*handler[R, E]
}

var _ http.Handler = (*RequestHandler[any, any])(nil)

// Close closes all open watch connections.
func (h *RequestHandler[R, E]) Close() error {
	h.lock.Lock()
	conns := slices.Clone(h.connections)
	h.lock.Unlock()

	for _, c := range conns {
		c.Close()
	}
	return nil
}

// Connections provides the number of open watch connections.
func (h *RequestHandler[R, E]) Connections() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.connections)
}

func (h *RequestHandler[R, E]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Info("new watch request from {{remote}}", "remote", r.RemoteAddr)
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.LogError(err, "upgrading watch request")
		return
	}

	msg, op, err := wsutil.ReadClientData(conn)
	if err != nil {
		log.LogError(err, "reading registration request")
		wsutil.WriteServerMessage(conn, ws.OpText, (&Error{err.Error()}).Data())
		conn.Close()
		return
	}
	if op != ws.OpText {
		log.Error("registration request is no text message")
		wsutil.WriteServerMessage(conn, ws.OpText, (&Error{"text registration request required"}).Data())
		conn.Close()
		return
	}

	var registration R

	err = yaml.UnmarshalStrict(msg, &registration)
	if err != nil {
		log.LogError(err, "decoding registration request")
		wsutil.WriteServerMessage(conn, ws.OpText, (&Error{err.Error()}).Data())
		conn.Close()
		return
	}

	c := newHandler[R, E](h, conn, h.registry, registration)
	go c.read()
}

func (h *RequestHandler[R, E]) addHandler(c *handler[R, E]) {
	log.Info("registering watch handler for {{req}}", "req", c.req)
	h.lock.Lock()
	defer h.lock.Unlock()
	h.connections = append(h.connections, c)
}

func (h *RequestHandler[R, E]) removeHandler(c *handler[R, E]) {
	log.Info("unregistering watch handler for {{req}}", "req", c.req)
	h.lock.Lock()
	defer h.lock.Unlock()
	h.connections = sliceutils.Filter(h.connections, matcher.Not(matcher.Contains(c)))
}

////////////////////////////////////////////////////////////////////////////////

type handler[R, E any] struct {
	hhandler *RequestHandler[R, E]
	lock     sync.Mutex
	conn     net.Conn
	req      R
	registry Registry[R, E]
	closed   bool
}

func newHandler[R, E any](hh *RequestHandler[R, E], conn net.Conn, registry Registry[R, E], req R) *handler[R, E] {
	h := &handler[R, E]{hhandler: hh, conn: conn, req: req, registry: registry}
	hh.addHandler(h)
	registry.RegisterWatchHandler(req, h)
	return h
}

// read consumes client frames until the connection is closed.
func (h *handler[R, E]) read() {
	for {
		_, _, err := wsutil.ReadClientData(h.conn)
		if err != nil {
			if !IsErrClosed(err) {
				log.LogError(err, "watch connection for {{req}} failed", "req", h.req)
			}
			h.Close()
			return
		}
	}
}

func (h *handler[R, E]) HandleEvent(e E) {
	data, err := json.Marshal(e)
	if err != nil {
		log.LogError(err, "cannot marshal event {{event}}", "event", e)
		return
	}
	h.lock.Lock()
	if h.closed {
		h.lock.Unlock()
		return
	}
	log.Debug("sending event {{event}}", "event", e)
	err = wsutil.WriteServerMessage(h.conn, ws.OpText, data)
	h.lock.Unlock()
	if err != nil {
		log.LogError(err, "cannot send event -> closing connection")
		h.Close()
	}
}

func (h *handler[R, E]) Close() error {
	h.lock.Lock()
	if h.closed {
		h.lock.Unlock()
		return nil
	}
	h.closed = true
	h.lock.Unlock()

	log.Info("closing connection and unregister handler for {{req}}", "req", h.req)
	h.conn.Close()
	h.registry.UnregisterWatchHandler(h.req, h)
	h.hhandler.removeHandler(h)
	return nil
}

// Error is sent to a client whose registration request
// could not be handled.
type Error struct {
	Error string `json:"error"`
}

func (e *Error) Message() string {
	return string(e.Data())
}

func (e *Error) Data() []byte {
	data, _ := json.Marshal(e)
	return data
}

func (e *Error) Err() error {
	return fmt.Errorf("watch request failed: %s", e.Error)
}
