package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/spf13/cobra"

	"github.com/mandelsoft/animated/cmds/animctl/app"
	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/ctxutil"
	"github.com/mandelsoft/animated/pkg/manager"
	"github.com/mandelsoft/animated/pkg/scenario"
	"github.com/mandelsoft/animated/pkg/watch"
)

const opacity = `
name: opacity
nodes:
- tag: 1
  config:
    type: value
    value: ${BASE:-0}
- tag: 2
  config:
    type: value
    value: 0.25
- tag: 3
  config:
    type: addition
    input: [1, 2]
- tag: 4
  config:
    type: props
    props:
      opacity: 3
edges:
- parent: 1
  child: 3
- parent: 2
  child: 3
- parent: 3
  child: 4
views:
- node: 4
  view: 10
listen: [3]
`

const scroll = `
name: scroll
nodes:
- tag: 1
  config:
    type: value
    value: 0
- tag: 2
  config:
    type: props
    props:
      translateY: 1
edges:
- parent: 1
  child: 2
views:
- node: 2
  view: 5
bindings:
- view: 5
  name: onScroll
  nodeTag: 1
  path: nativeEvent.contentOffset.y
`

var _ = Describe("animctl", func() {
	var fs vfs.FileSystem
	var cmd *cobra.Command
	var buf *bytes.Buffer

	BeforeEach(func() {
		fs = memoryfs.New()
		MustBeSuccessful(vfs.WriteFile(fs, "opacity.yaml", []byte(opacity), 0o644))
		MustBeSuccessful(vfs.WriteFile(fs, "scroll.yaml", []byte(scroll), 0o644))
		buf = bytes.NewBuffer(nil)
		cmd = app.New(fs)
		cmd.SetOut(buf)
	})

	Context("run", func() {
		It("prints a summary", func() {
			cmd.SetArgs([]string{"run", "opacity.yaml", "--set", "BASE=0.25"})
			MustBeSuccessful(cmd.Execute())
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			Expect(lines).To(HaveLen(4))
			Expect(lines[:3]).To(Equal([]string{
				"frame 0: view 10: opacity=0.5",
				"node 3: [0.5]",
				"frames: 1",
			}))
			Expect(lines[3]).To(HavePrefix("fingerprint: "))
		})

		It("prints json", func() {
			cmd.SetArgs([]string{"run", "opacity.yaml", "-o", "json"})
			MustBeSuccessful(cmd.Execute())
			var r scenario.Result
			MustBeSuccessful(json.Unmarshal(buf.Bytes(), &r))
			Expect(r.Frames).To(Equal(1))
			Expect(r.Emissions).To(Equal([]scenario.Emission{{Frame: 0, View: 10, Props: common.Props{"opacity": 0.25}}}))
			Expect(r.Snapshot.Nodes).To(HaveLen(4))
		})

		It("runs multiple scenarios", func() {
			cmd.SetArgs([]string{"run", "opacity.yaml", "scroll.yaml", "-w", "2"})
			MustBeSuccessful(cmd.Execute())
			out := buf.String()
			Expect(out).To(HavePrefix("== opacity.yaml\nframe 0: view 10: opacity=0.25\n"))
			Expect(out).To(ContainSubstring("\n\n== scroll.yaml\nframe 0: view 5: translateY=0\n"))
		})

		It("reports failing scenarios", func() {
			cmd.SetArgs([]string{"run", "opacity.yaml", "missing.yaml"})
			Expect(cmd.Execute()).To(MatchError("1 of 2 scenarios failed"))
			Expect(buf.String()).To(ContainSubstring("== missing.yaml\nfailed: "))
		})

		It("rejects invalid settings", func() {
			cmd.SetArgs([]string{"run", "opacity.yaml", "--set", "BASE"})
			Expect(cmd.Execute()).To(MatchError(ContainSubstring("invalid variable setting")))
		})

		It("rejects invalid output formats", func() {
			cmd.SetArgs([]string{"run", "opacity.yaml", "-o", "xml"})
			Expect(cmd.Execute()).To(MatchError(`invalid output format "xml"`))
		})

		It("rejects invalid log levels", func() {
			cmd.SetArgs([]string{"-L", "chatty", "run", "opacity.yaml"})
			Expect(cmd.Execute()).To(MatchError(`invalid log level "chatty"`))
		})
	})

	Context("formatting", func() {
		It("formats props", func() {
			Expect(app.FormatProps(common.Props{"opacity": 0.5, "color": uint32(0xff0000ff), "width": nil})).
				To(Equal("color=#ff0000ff opacity=0.5 width=<default>"))
		})

		It("provides watch urls", func() {
			Expect(app.WatchURL("localhost:8080")).To(Equal("ws://localhost:8080/watch"))
			Expect(app.WatchURL("http://localhost:8080/")).To(Equal("ws://localhost:8080/watch"))
			Expect(app.WatchURL("https://host")).To(Equal("wss://host/watch"))
		})
	})

	Context("serve", func() {
		var ctx context.Context
		var rt *app.Runtime
		var base string

		BeforeEach(func() {
			ctx = ctxutil.TimeoutContext(context.Background(), 30*time.Second)
			s := Must(scenario.Load(fs, "scroll.yaml", nil))
			rt = Must(app.StartRuntime(ctx, logging.DefaultContext(), s, 0, ""))
			base = fmt.Sprintf("http://%s", rt.Addr())
		})

		AfterEach(func() {
			ctxutil.Cancel(ctx)
			MustBeSuccessful(rt.Wait())
		})

		snapshot := func() *manager.Snapshot {
			resp := Must(http.Get(base + "/snapshot"))
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var s manager.Snapshot
			MustBeSuccessful(json.NewDecoder(resp.Body).Decode(&s))
			return &s
		}

		post := func(ev string) (int, string) {
			resp := Must(http.Post(base+"/event", "application/json", strings.NewReader(ev)))
			defer resp.Body.Close()
			return resp.StatusCode, string(Must(io.ReadAll(resp.Body)))
		}

		It("serves the manager state", func() {
			s := snapshot()
			Expect(s.Nodes).To(HaveLen(2))
			Expect(s.Bindings).To(HaveLen(1))

			resp := Must(http.Get(base + "/healthz"))
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp = Must(http.Get(base + "/metrics"))
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(Must(io.ReadAll(resp.Body)))).To(ContainSubstring("animated_commands_total"))
		})

		It("dispatches events and streams values", func() {
			events := make(chan watch.Event, 10)
			c := watch.NewClient[watch.Request, watch.Event](app.WatchURL(base))
			Must(c.Register(ctx, watch.Request{Nodes: []common.Tag{1}}, handler(events)))
			Eventually(events, 5*time.Second).Should(Receive(Equal(watch.Event{Node: 1, Value: 0})))

			code, _ := post(`{"view":5,"name":"topScroll","payload":{"nativeEvent":{"contentOffset":{"y":42}}}}`)
			Expect(code).To(Equal(http.StatusOK))
			Eventually(events, 5*time.Second).Should(Receive(Equal(watch.Event{Node: 1, Value: 42})))
			Expect(snapshot().Nodes[0].Output).To(Equal(42.0))

			code, body := post(`{"view":5,"name":"topScroll","payload":{}}`)
			Expect(code).To(Equal(http.StatusUnprocessableEntity))
			Expect(body).To(ContainSubstring("nativeEvent.contentOffset.y"))

			code, _ = post(`{"view":5,"unknown":1}`)
			Expect(code).To(Equal(http.StatusBadRequest))
		})
	})
})

type handler chan watch.Event

func (h handler) HandleEvent(e watch.Event) {
	h <- e
}
