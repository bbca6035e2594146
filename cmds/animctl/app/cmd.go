package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/mandelsoft/goutils/general"
	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/spf13/cobra"
)

type Options struct {
	fs    vfs.FileSystem
	lctx  logging.Context
	level string
	vars  []string
}

// Variables provides the scenario variables. Values given with
// --set override the process environment.
func (o *Options) Variables() (map[string]string, error) {
	vars := map[string]string{}
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			vars[k] = v
		}
	}
	for _, s := range o.vars {
		k, v, ok := strings.Cut(s, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid variable setting %q: <name>=<value> required", s)
		}
		vars[k] = v
	}
	return vars, nil
}

func (o *Options) configure() error {
	if o.level == "" {
		return nil
	}
	l, err := logging.ParseLevel(o.level)
	if err != nil {
		return fmt.Errorf("invalid log level %q", o.level)
	}
	o.lctx.AddRule(logging.NewConditionRule(l, logging.NewRealmPrefix("animated")))
	return nil
}

func New(fss ...vfs.FileSystem) *cobra.Command {
	opts := &Options{
		fs:   general.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...),
		lctx: logging.DefaultContext(),
	}

	maincmd := &cobra.Command{
		Use:   "animctl <options> <cmd> <args>",
		Short: "run animated node graph scenarios",
		Long: `
This command replays scenario documents describing an animated
node graph, its animations and a timeline of values and events.
A scenario can be run against a simulated clock or served with a
real display link and a websocket endpoint watching node values.
`,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.configure()
		},
	}
	TweakCommand(maincmd)

	flags := maincmd.PersistentFlags()
	flags.StringVarP(&opts.level, "log-level", "L", "", "log level for the animated realms")

	maincmd.AddCommand(NewRun(opts))
	maincmd.AddCommand(NewServe(opts))
	maincmd.AddCommand(NewWatch(opts))
	return maincmd
}

// TweakCommand suppresses the usage output for failing executions.
func TweakCommand(cmd *cobra.Command) {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.DisableFlagsInUseLine = true
}
