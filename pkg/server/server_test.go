package server_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/animated/pkg/ctxutil"
	"github.com/mandelsoft/animated/pkg/server"
	"github.com/mandelsoft/animated/pkg/service"
)

func get(srv *server.Server, path string) (int, string) {
	resp := Must(http.Get(fmt.Sprintf("http://%s%s", srv.Addr(), path)))
	defer resp.Body.Close()
	return resp.StatusCode, string(Must(io.ReadAll(resp.Body)))
}

var _ = Describe("server", func() {
	var ctx context.Context
	var services service.Services
	var srv *server.Server

	BeforeEach(func() {
		ctx = ctxutil.TimeoutContext(context.Background(), 30*time.Second)
		services = service.New(ctx)
		srv = server.NewServer(0, true, time.Second)
		srv.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "test handler\n")
		})
		MustBeSuccessful(services.Start(srv))
	})

	AfterEach(func() {
		ctxutil.Cancel(ctx)
		MustBeSuccessful(services.Wait())
	})

	It("serves handlers", func() {
		code, body := get(srv, "/test")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(Equal("test handler\n"))
	})

	It("serves documents", func() {
		fs := memoryfs.New()
		MustBeSuccessful(vfs.WriteFile(fs, "demo.yaml", []byte("frames: 10\n"), 0o644))
		server.NewDocumentHandler(fs, "/scenarios").RegisterHandler(srv)

		resp := Must(http.Get(fmt.Sprintf("http://%s/scenarios/demo.yaml", srv.Addr())))
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(Equal("application/yaml"))
		Expect(string(Must(io.ReadAll(resp.Body)))).To(Equal("frames: 10\n"))

		resp = Must(http.Post(fmt.Sprintf("http://%s/scenarios/demo.yaml", srv.Addr()), "text/plain", nil))
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
	})
})
