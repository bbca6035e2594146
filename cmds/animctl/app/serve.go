package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mandelsoft/logging"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/animated/pkg/clock"
	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/drivers"
	"github.com/mandelsoft/animated/pkg/events"
	"github.com/mandelsoft/animated/pkg/manager"
	"github.com/mandelsoft/animated/pkg/scenario"
	"github.com/mandelsoft/animated/pkg/server"
	"github.com/mandelsoft/animated/pkg/service"
	"github.com/mandelsoft/animated/pkg/watch"

	_ "github.com/mandelsoft/animated/pkg/healthz"
	_ "github.com/mandelsoft/animated/pkg/metrics"
)

type Serve struct {
	cmd *cobra.Command

	mainopts *Options
	port     int
	docs     string
}

func NewServe(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <scenario> <options>",
		Short: "serve a scenario with a display link",
		Long: `
The scenario is set up in a manager driven by a display link. The timed
actions are replayed in real time. The server provides the endpoints

  /watch     websocket endpoint streaming node values
  /snapshot  the current state of the manager
  /event     dispatches a posted event
  /healthz   health status
  /docs/     documents of the directory given by --docs
`,
		Args: cobra.ExactArgs(1),
	}
	TweakCommand(cmd)

	c := &Serve{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(cmd.Context(), args) }
	flags := cmd.Flags()
	flags.IntVarP(&c.port, "port", "p", 8080, "server port")
	flags.StringVarP(&c.docs, "docs", "d", "", "document directory")
	flags.StringArrayVarP(&c.mainopts.vars, "set", "s", nil, "scenario variable (<name>=<value>)")
	return cmd
}

func (c *Serve) Run(ctx context.Context, args []string) error {
	vars, err := c.mainopts.Variables()
	if err != nil {
		return err
	}
	s, err := scenario.Load(c.mainopts.fs, args[0], vars)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := StartRuntime(ctx, c.mainopts.lctx, s, c.port, c.docs)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.cmd.OutOrStdout(), "serving scenario %q on %s\n", s.Name, rt.Addr())
	return rt.Wait()
}

////////////////////////////////////////////////////////////////////////////////

// Runtime serves a scenario with a display link, a player for its
// timed actions and an HTTP server.
type Runtime struct {
	services service.Services
	server   *server.Server
	link     *clock.DisplayLink
	endpoint *watch.RequestHandler[watch.Request, watch.Event]
}

func StartRuntime(ctx context.Context, lctx logging.Context, s *scenario.Scenario, port int, docs string) (*Runtime, error) {
	log := lctx.Logger(REALM).WithValues("scenario", s.Name)

	m := manager.New(lctx, manager.SinkFunc(func(view common.ViewTag, props common.Props) {
		log.Debug("{{view}}: {{props}}", "view", view, "props", FormatProps(props))
	}))
	if err := s.Setup(m); err != nil {
		return nil, err
	}

	rt := &Runtime{
		services: service.New(ctx),
		server:   server.NewServer(port, true, 10*time.Second),
		link:     clock.NewDisplayLink(lctx, m, s.FramePeriod()),
	}
	rt.endpoint = watch.WatchHttpHandler[watch.Request, watch.Event](watch.NewValueRegistry(rt.link))
	rt.server.Handle("/watch", rt.endpoint)
	rt.server.HandleFunc("/snapshot", rt.snapshot)
	rt.server.HandleFunc("/event", rt.event)
	if docs != "" {
		h, err := server.NewDocumentHandlerFor(docs, "/docs")
		if err != nil {
			return nil, err
		}
		h.RegisterHandler(rt.server)
	}

	p := &player{scenario: s, link: rt.link, log: log}
	err := rt.services.Start(rt.link, rt.server, p)
	if err != nil {
		rt.services.Cancel()
		rt.services.Wait()
		return nil, err
	}
	go func() {
		<-ctx.Done()
		rt.endpoint.Close()
	}()
	return rt, nil
}

func (rt *Runtime) Addr() net.Addr {
	return rt.server.Addr()
}

func (rt *Runtime) Cancel() {
	rt.services.Cancel()
}

func (rt *Runtime) Wait() error {
	return rt.services.Wait()
}

func (rt *Runtime) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not supported", r.Method))
		return
	}
	var snapshot *manager.Snapshot
	err := rt.link.Call(func(m *manager.Manager) error {
		snapshot = m.Snapshot()
		return nil
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

func (rt *Runtime) event(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not supported", r.Method))
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var ev events.Event
	if err := yaml.UnmarshalStrict(data, &ev); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err = rt.link.Call(func(m *manager.Manager) error {
		return m.HandleEvent(ev)
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write((&watch.Error{Error: err.Error()}).Data())
}

////////////////////////////////////////////////////////////////////////////////

// player replays the timed actions of a scenario in real time.
type player struct {
	scenario *scenario.Scenario
	link     *clock.DisplayLink
	log      logging.Logger
	done     service.Syncher
}

var _ service.Service = (*player)(nil)

func (p *player) Start(ctx context.Context) (service.Syncher, service.Syncher, error) {
	wg := &sync.WaitGroup{}
	wg.Add(1)
	p.done = service.Sync(wg)
	go func() {
		defer wg.Done()
		p.done.SetError(p.run(ctx))
	}()
	return nil, p.done, nil
}

func (p *player) Wait() error {
	if p.done == nil {
		return nil
	}
	return p.done.Wait()
}

func (p *player) run(ctx context.Context) error {
	hooks := scenario.Hooks{
		Done: func(id common.AnimationID, r drivers.EndResult) {
			p.log.Info("{{animation}} done (finished {{finished}}, value {{value}})", "animation", id, "finished", r.Finished, "value", r.Value)
		},
		EventFailed: func(err error) {
			p.log.LogError(err, "event dispatch failed")
		},
	}

	ticker := time.NewTicker(p.scenario.FramePeriod())
	defer ticker.Stop()

	last := p.scenario.LastFrame()
	for frame := 0; frame <= last; frame++ {
		err := p.link.Call(func(m *manager.Manager) error {
			return p.scenario.Apply(m, frame, hooks)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.log.LogError(err, "timed actions of frame {{frame}} failed", "frame", frame)
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	p.log.Info("all timed actions of {{frames}} frames applied", "frames", last+1)
	return nil
}
