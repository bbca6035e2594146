package watch_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/animated/pkg/clock"
	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/ctxutil"
	"github.com/mandelsoft/animated/pkg/manager"
	"github.com/mandelsoft/animated/pkg/nodes"
	"github.com/mandelsoft/animated/pkg/server"
	"github.com/mandelsoft/animated/pkg/service"
	me "github.com/mandelsoft/animated/pkg/watch"
)

// direct executes commands synchronously under a lock.
type direct struct {
	lock sync.Mutex
	mgr  *manager.Manager
}

func (d *direct) Do(cmd clock.Command) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	cmd(d.mgr)
	return nil
}

type handler struct {
	events chan me.Event
}

func (h *handler) HandleEvent(e me.Event) {
	h.events <- e
}

var _ = Describe("watch", func() {
	var ctx context.Context
	var services service.Services
	var srv *server.Server
	var exec *direct
	var registry *me.ValueRegistry
	var endpoint *me.RequestHandler[me.Request, me.Event]
	var url string

	listeners := func() []common.Tag {
		var list []common.Tag
		exec.Do(func(m *manager.Manager) {
			list = m.Snapshot().Listeners
		})
		return list
	}

	BeforeEach(func() {
		ctx = ctxutil.TimeoutContext(context.Background(), 30*time.Second)
		services = service.New(ctx)

		m := manager.New(nil, nil)
		MustBeSuccessful(m.CreateNode(1, &nodes.ValueConfig{Value: 3}))
		MustBeSuccessful(m.CreateNode(2, &nodes.ValueConfig{Value: 4}))
		exec = &direct{mgr: m}
		registry = me.NewValueRegistry(exec)
		endpoint = me.WatchHttpHandler[me.Request, me.Event](registry)

		srv = server.NewServer(0, false, time.Second)
		srv.Handle("/watch", endpoint)
		MustBeSuccessful(services.Start(srv))
		url = fmt.Sprintf("ws://%s/watch", srv.Addr())
	})

	AfterEach(func() {
		endpoint.Close()
		ctxutil.Cancel(ctx)
		MustBeSuccessful(services.Wait())
	})

	It("streams node values", func() {
		h := &handler{events: make(chan me.Event, 10)}
		cctx, ccancel := context.WithCancel(ctx)
		defer ccancel()

		c := me.NewClient[me.Request, me.Event](url)
		s := Must(c.Register(cctx, me.Request{Nodes: []common.Tag{1}}, h))

		Eventually(h.events, 5*time.Second).Should(Receive(Equal(me.Event{Node: 1, Value: 3})))
		Eventually(listeners, 5*time.Second).Should(Equal([]common.Tag{1}))

		exec.Do(func(m *manager.Manager) {
			MustBeSuccessful(m.SetValue(1, 5))
			MustBeSuccessful(m.SetValue(2, 6))
			m.Evaluate()
		})
		Eventually(h.events, 5*time.Second).Should(Receive(Equal(me.Event{Node: 1, Value: 5})))
		Consistently(h.events, 200*time.Millisecond).ShouldNot(Receive())

		ccancel()
		MustBeSuccessful(s.Wait())
		Eventually(listeners, 5*time.Second).Should(BeEmpty())
		Eventually(endpoint.Connections, 5*time.Second).Should(Equal(0))
		Expect(registry.Watched()).To(BeEmpty())
	})

	It("keeps listening while a node is watched", func() {
		h1 := &handler{events: make(chan me.Event, 10)}
		h2 := &handler{events: make(chan me.Event, 10)}
		c := me.NewClient[me.Request, me.Event](url)

		ctx1, cancel1 := context.WithCancel(ctx)
		defer cancel1()
		s1 := Must(c.Register(ctx1, me.Request{Nodes: []common.Tag{1}}, h1))
		Must(c.Register(ctx, me.Request{Nodes: []common.Tag{1, 2}}, h2))

		Eventually(h1.events, 5*time.Second).Should(Receive(Equal(me.Event{Node: 1, Value: 3})))
		Eventually(endpoint.Connections, 5*time.Second).Should(Equal(2))
		Eventually(listeners, 5*time.Second).Should(Equal([]common.Tag{1, 2}))

		cancel1()
		MustBeSuccessful(s1.Wait())
		Eventually(endpoint.Connections, 5*time.Second).Should(Equal(1))
		Expect(listeners()).To(Equal([]common.Tag{1, 2}))
		Expect(registry.Watched()).To(Equal([]common.Tag{1, 2}))
	})

	It("rejects invalid requests", func() {
		c := me.NewClient[map[string]string, me.Event](url)
		w := Must(c.Watch(ctx, map[string]string{"unknown": "field"}))
		defer w.Close()
		_, err := w.Receive()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("watch request failed"))
	})
})
