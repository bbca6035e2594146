package metrics_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	me "github.com/mandelsoft/animated/pkg/metrics"
)

var _ = Describe("metrics", func() {
	It("counts frames", func() {
		frames := testutil.ToFloat64(me.Frames)
		idle := testutil.ToFloat64(me.IdleFrames)

		me.ObserveStep(time.Millisecond, true)
		me.ObserveStep(time.Millisecond, false)

		Expect(testutil.ToFloat64(me.Frames)).To(Equal(frames + 2))
		Expect(testutil.ToFloat64(me.IdleFrames)).To(Equal(idle + 1))
	})

	It("counts scenario results", func() {
		ok := testutil.ToFloat64(me.Scenarios.WithLabelValues("succeeded"))
		failed := testutil.ToFloat64(me.Scenarios.WithLabelValues("failed"))

		me.ObserveScenario(nil)
		me.ObserveScenario(fmt.Errorf("broken"))
		me.ObserveScenario(nil)

		Expect(testutil.ToFloat64(me.Scenarios.WithLabelValues("succeeded"))).To(Equal(ok + 2))
		Expect(testutil.ToFloat64(me.Scenarios.WithLabelValues("failed"))).To(Equal(failed + 1))
	})

	It("serves metrics", func() {
		me.ObserveCommand()
		rec := httptest.NewRecorder()
		promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("animated_commands_total"))
		Expect(rec.Body.String()).To(ContainSubstring("animated_step_duration_seconds_bucket"))
	})
})
