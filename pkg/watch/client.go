package watch

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/mandelsoft/goutils/general"
)

type Client[R, E any] struct {
	dialer ws.Dialer
	url    string
}

func NewClient[R, E any](url string, dialer ...ws.Dialer) *Client[R, E] {
	return &Client[R, E]{
		dialer: general.OptionalDefaulted(ws.DefaultDialer, dialer...),
		url:    url,
	}
}

func (c *Client[R, E]) Dial(ctx context.Context) (net.Conn, error) {
	conn, _, _, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Client[R, E]) RequestWatch(conn net.Conn, req R) (*Watch[E], error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	err = wsutil.WriteClientMessage(conn, ws.OpText, data)
	if err != nil {
		return nil, err
	}
	return &Watch[E]{conn: conn}, nil
}

func (c *Client[R, E]) Watch(ctx context.Context, req R) (*Watch[E], error) {
	conn, err := c.Dial(ctx)
	if err != nil {
		return nil, err
	}
	w, err := c.RequestWatch(conn, req)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return w, nil
}

// Register starts a watch and feeds the received events into the
// handler until the context is cancelled or the server closes the
// connection.
func (c *Client[R, E]) Register(ctx context.Context, req R, h EventHandler[E]) (Syncher, error) {
	w, err := c.Watch(ctx, req)
	if err != nil {
		return nil, err
	}

	s := &syncher{
		wait: &sync.WaitGroup{},
	}
	s.wait.Add(1)

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			w.Close()
		case <-stop:
		}
	}()

	go func() {
		defer s.wait.Done()
		defer close(stop)
		for {
			events, err := w.Receive()
			if err != nil {
				if !IsErrClosed(err) && ctx.Err() == nil {
					s.err = err
				}
				w.Close()
				return
			}
			for _, e := range events {
				h.HandleEvent(e)
			}
		}
	}()
	return s, nil
}

////////////////////////////////////////////////////////////////////////////////

type Syncher interface {
	Wait() error
}

type syncher struct {
	wait *sync.WaitGroup
	err  error
}

func (s *syncher) Wait() error {
	s.wait.Wait()
	return s.err
}

////////////////////////////////////////////////////////////////////////////////

type Watch[E any] struct {
	conn net.Conn
}

// Receive reads the next events. An error message sent by the
// server is returned as error.
func (w *Watch[E]) Receive() ([]E, error) {
	msgs, err := wsutil.ReadServerMessage(w.conn, nil)
	if err != nil {
		return nil, err
	}

	var events []E
	for _, m := range msgs {
		switch m.OpCode {
		case ws.OpClose:
			return events, io.EOF
		case ws.OpText, ws.OpBinary:
		default:
			continue
		}
		var failure Error
		if json.Unmarshal(m.Payload, &failure) == nil && failure.Error != "" {
			return events, failure.Err()
		}

		var evt E
		err := json.Unmarshal(m.Payload, &evt)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, nil
}

func (w *Watch[E]) Close() error {
	return w.conn.Close()
}
