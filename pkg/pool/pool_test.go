package pool_test

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/animated/pkg/ctxutil"
	me "github.com/mandelsoft/animated/pkg/pool"
)

const CMD_TEST = "test"
const CMD_SCHED = "schedule"
const CMD_REDO = "redo"
const CMD_FAIL = "fail"

type action struct {
	lock     sync.Mutex
	commands []me.Command
}

var _ me.Action = (*action)(nil)

func (a *action) Executed() []me.Command {
	a.lock.Lock()
	defer a.lock.Unlock()
	return slices.Clone(a.commands)
}

func (a *action) Command(p me.Pool, log logging.Logger, cmd me.Command) me.Status {
	a.lock.Lock()
	defer a.lock.Unlock()

	first := !slices.Contains(a.commands, cmd)
	a.commands = append(a.commands, cmd)

	switch cmd.Name() {
	case CMD_TEST:
		n, err := strconv.Atoi(cmd.Arg())
		if err == nil && n > 0 {
			p.EnqueueCommand(me.NewCommand(CMD_TEST, strconv.Itoa(n-1)))
		}
	case CMD_SCHED:
		if first {
			return me.StatusCompleted().RescheduleAfter(100 * time.Millisecond)
		}
	case CMD_REDO:
		if first {
			return me.StatusRedo()
		}
	case CMD_FAIL:
		return me.StatusFailed(fmt.Errorf("%s", cmd.Arg()))
	}
	return me.StatusCompleted()
}

var _ = Describe("pool", func() {
	var pool me.Pool
	var ctx context.Context
	var a *action

	BeforeEach(func() {
		ctx = ctxutil.CancelContext(context.Background())
		pool = me.NewPool(logging.DefaultContext(), "test", 2, 0)
		a = &action{}
		pool.AddAction(CMD_TEST, a)
		pool.AddAction(CMD_SCHED, a)
		pool.AddAction(CMD_REDO, a)
		pool.AddAction(CMD_FAIL, a)
		ready, _, err := pool.Start(ctx)
		MustBeSuccessful(err)
		MustBeSuccessful(ready.Wait())
	})

	AfterEach(func() {
		ctxutil.Cancel(ctx)
		MustBeSuccessful(pool.Wait())
	})

	It("splits commands", func() {
		cmd := me.NewCommand("run", "a.yaml")
		Expect(cmd.Name()).To(Equal("run"))
		Expect(cmd.Arg()).To(Equal("a.yaml"))
		Expect(me.NewCommand("tick").Arg()).To(Equal(""))
	})

	It("executes commands", func() {
		pool.EnqueueCommand(CMD_TEST)
		Eventually(a.Executed, 5*time.Second).Should(ConsistOf(me.Command(CMD_TEST)))
		Expect(pool.GetActions(CMD_TEST)).To(HaveLen(1))
		Expect(pool.GetActions("unknown")).To(BeEmpty())
	})

	It("schedules other commands", func() {
		pool.EnqueueCommand(me.NewCommand(CMD_TEST, "2"))
		Eventually(a.Executed, 5*time.Second).Should(ConsistOf(
			me.Command(CMD_TEST+":2"), me.Command(CMD_TEST+":1"), me.Command(CMD_TEST+":0")))
	})

	It("repeats commands", func() {
		pool.EnqueueCommand(CMD_REDO)
		Eventually(a.Executed, 5*time.Second).Should(ConsistOf(me.Command(CMD_REDO), me.Command(CMD_REDO)))
	})

	It("reschedules commands", func() {
		pool.EnqueueCommand(CMD_SCHED)
		Eventually(a.Executed, 5*time.Second).Should(ConsistOf(me.Command(CMD_SCHED), me.Command(CMD_SCHED)))
		Consistently(a.Executed, 300*time.Millisecond).Should(HaveLen(2))
	})

	It("does not repeat failed commands", func() {
		pool.EnqueueCommand(me.NewCommand(CMD_FAIL, "broken"))
		Eventually(a.Executed, 5*time.Second).Should(HaveLen(1))
		Consistently(a.Executed, 300*time.Millisecond).Should(HaveLen(1))
	})
})
