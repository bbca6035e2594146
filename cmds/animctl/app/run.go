package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mandelsoft/goutils/maputils"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/scenario"
)

type Run struct {
	cmd *cobra.Command

	mainopts *Options
	frames   int
	workers  int
	output   string
}

func NewRun(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario> {<scenario>} <options>",
		Short: "run scenarios against a simulated clock",
		Long: `
Every scenario is run with its own manager driven by a simulated
clock. Multiple scenarios are run concurrently by a pool of workers.
`,
		Args: cobra.MinimumNArgs(1),
	}
	TweakCommand(cmd)

	c := &Run{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	flags := cmd.Flags()
	flags.IntVarP(&c.frames, "frames", "f", 0, "maximum number of frames")
	flags.IntVarP(&c.workers, "workers", "w", 4, "number of workers for multiple scenarios")
	flags.StringVarP(&c.output, "output", "o", "", "output format (json, yaml)")
	flags.StringArrayVarP(&c.mainopts.vars, "set", "s", nil, "scenario variable (<name>=<value>)")
	return cmd
}

func (c *Run) Run(args []string) error {
	if c.frames < 0 {
		return fmt.Errorf("frame limit must not be negative")
	}
	if c.output != "" && c.output != "json" && c.output != "yaml" {
		return fmt.Errorf("invalid output format %q", c.output)
	}
	vars, err := c.mainopts.Variables()
	if err != nil {
		return err
	}

	if len(args) > 1 {
		return c.batch(vars, args)
	}

	s, err := scenario.Load(c.mainopts.fs, args[0], vars)
	if err != nil {
		return err
	}
	if c.frames > 0 {
		s.Frames = c.frames
	}
	r, err := s.Run(c.mainopts.lctx)
	if err != nil {
		return err
	}
	if c.output == "" {
		Summary(c.cmd.OutOrStdout(), r)
		return nil
	}
	return c.print(r)
}

func (c *Run) batch(vars map[string]string, paths []string) error {
	ctx := c.cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	opts := scenario.BatchOptions{
		Workers:   c.workers,
		Frames:    c.frames,
		Variables: vars,
	}
	results, err := scenario.RunBatch(ctx, c.mainopts.lctx, c.mainopts.fs, opts, paths...)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if c.output == "" {
		w := c.cmd.OutOrStdout()
		for i, r := range results {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "== %s\n", r.Path)
			if r.Error != "" {
				fmt.Fprintf(w, "failed: %s\n", r.Error)
			} else {
				Summary(w, r.Result)
			}
		}
	} else {
		if err := c.print(results); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	return nil
}

func (c *Run) print(v any) error {
	var data []byte
	var err error
	if c.output == "yaml" {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return err
	}
	_, err = c.cmd.OutOrStdout().Write(data)
	return err
}

// Summary prints a human readable description of a run.
func Summary(w io.Writer, r *scenario.Result) {
	for _, e := range r.Emissions {
		fmt.Fprintf(w, "frame %d: %s: %s\n", e.Frame, e.View, FormatProps(e.Props))
	}
	for _, tag := range maputils.OrderedKeys(r.Values) {
		fmt.Fprintf(w, "node %s: %v\n", tag, r.Values[tag])
	}
	for _, id := range maputils.OrderedKeys(r.Animations) {
		res := r.Animations[id]
		state := "finished"
		if !res.Finished {
			state = "stopped"
		}
		fmt.Fprintf(w, "%s: %s with %g\n", id, state, res.Value)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	fmt.Fprintf(w, "frames: %d\n", r.Frames)
	fmt.Fprintf(w, "fingerprint: %s\n", r.Fingerprint)
}

func FormatProps(props common.Props) string {
	var list []string
	for _, k := range maputils.OrderedKeys(map[string]any(props)) {
		v := props[k]
		switch t := v.(type) {
		case nil:
			list = append(list, k+"=<default>")
		case uint32:
			list = append(list, fmt.Sprintf("%s=#%08x", k, t))
		default:
			list = append(list, fmt.Sprintf("%s=%v", k, t))
		}
	}
	return strings.Join(list, " ")
}
