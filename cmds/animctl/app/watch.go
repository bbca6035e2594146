package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/watch"
)

type Watch struct {
	cmd *cobra.Command

	mainopts *Options
	address  string
}

func NewWatch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <node> {<node>} <options>",
		Short: "watch node values of a served scenario",
		Args:  cobra.MinimumNArgs(1),
	}
	TweakCommand(cmd)

	c := &Watch{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(cmd.Context(), args) }
	flags := cmd.Flags()
	flags.StringVarP(&c.address, "server", "S", "localhost:8080", "server address")
	return cmd
}

func (c *Watch) Run(ctx context.Context, args []string) error {
	var req watch.Request
	for _, a := range args {
		tag, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("invalid node tag %q", a)
		}
		req.Nodes = append(req.Nodes, common.Tag(tag))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := Consume(ctx, c.cmd.OutOrStdout(), WatchURL(c.address), req)
	if err != nil {
		return err
	}
	return s.Wait()
}

// WatchURL provides the websocket url of the watch endpoint
// of a server.
func WatchURL(address string) string {
	switch {
	case strings.HasPrefix(address, "https://"):
		address = "wss://" + strings.TrimPrefix(address, "https://")
	case strings.HasPrefix(address, "http://"):
		address = "ws://" + strings.TrimPrefix(address, "http://")
	case strings.HasPrefix(address, "ws://"), strings.HasPrefix(address, "wss://"):
	default:
		address = "ws://" + address
	}
	return strings.TrimSuffix(address, "/") + "/watch"
}

func Consume(ctx context.Context, w io.Writer, url string, req watch.Request) (watch.Syncher, error) {
	c := watch.NewClient[watch.Request, watch.Event](url)
	return c.Register(ctx, req, &handler{w})
}

type handler struct {
	w io.Writer
}

func (h *handler) HandleEvent(e watch.Event) {
	data, _ := json.Marshal(e)
	fmt.Fprintf(h.w, "%s\n", string(data))
}
