package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ehrlich-b/wezmux/internal/domain"
	"github.com/ehrlich-b/wezmux/internal/ptysystem"
	"github.com/ehrlich-b/wezmux/internal/rpcclient"
	"github.com/ehrlich-b/wezmux/internal/tab"
)

// defaultDomainID is the domain id of the LocalDomain a freshly started
// wezmux-server registers: AllocDomainId's first call in a clean process.
// --domain overrides it for servers with more than one registered domain.
const defaultDomainID = domain.DomainId(1)

func main() {
	var addrFlag string
	var domainFlag uint32

	root := &cobra.Command{
		Use:   "wezmux",
		Short: "wezmux client — talk to a running wezmux-server",
	}
	root.PersistentFlags().StringVar(&addrFlag, "addr", "unix:///tmp/wezmux.sock", "server address (unix://path, tcp://host:port, ws(s)://url)")
	root.PersistentFlags().Uint32Var(&domainFlag, "domain", uint32(defaultDomainID), "domain id to spawn into")

	root.AddCommand(
		spawnCmd(&addrFlag, &domainFlag),
		listCmd(&addrFlag),
		attachCmd(&addrFlag),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func dial(ctx context.Context, addr string) (*rpcclient.Client, error) {
	network, address := splitAddr(addr)
	return rpcclient.Dial(ctx, network, address)
}

// splitAddr turns a "scheme://rest" address into the (network, address)
// pair rpcclient.Dial expects.
func splitAddr(addr string) (string, string) {
	for _, scheme := range []string{"unix", "tcp", "ws", "wss"} {
		prefix := scheme + "://"
		if len(addr) > len(prefix) && addr[:len(prefix)] == prefix {
			if scheme == "ws" || scheme == "wss" {
				return scheme, addr
			}
			return scheme, addr[len(prefix):]
		}
	}
	return "unix", addr
}

func spawnCmd(addr *string, domainFlag *uint32) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spawn [-- command args...]",
		Short: "Spawn a new tab in a fresh window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			c, err := dial(ctx, *addr)
			if err != nil {
				return fmt.Errorf("dial %s: %w", *addr, err)
			}
			defer c.Close()

			cols, rows := 80, 24
			if term.IsTerminal(int(os.Stdin.Fd())) {
				if w, h, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
					cols, rows = w, h
				}
			}

			resp, err := c.Spawn(ctx, domain.DomainId(*domainFlag), nil, args, nil, ptysystem.PtySize{
				Rows: uint16(rows), Cols: uint16(cols),
			})
			if err != nil {
				return fmt.Errorf("spawn: %w", err)
			}
			fmt.Printf("tab %d in window %d\n", resp.TabID, resp.WindowID)
			return nil
		},
	}
	return cmd
}

func listCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every window and tab the server knows about",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			c, err := dial(ctx, *addr)
			if err != nil {
				return fmt.Errorf("dial %s: %w", *addr, err)
			}
			defer c.Close()

			entries, err := c.ListTabs(ctx)
			if err != nil {
				return fmt.Errorf("list tabs: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("no tabs")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WINDOW\tTAB\tTITLE")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%d\t%s\n", e.WindowID, e.TabID, e.Title)
			}
			return w.Flush()
		},
	}
}

func attachCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <tab-id>",
		Short: "Attach stdin/stdout to a remote tab",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid tab id %q: %w", args[0], err)
			}
			return attach(*addr, tab.TabId(id))
		},
	}
}

// attach puts the local terminal in raw mode, forwards stdin to the
// remote tab, and polls its renderable state for new output. There is no
// cursor-addressed repaint here — each poll's fresh dirty lines are
// appended to stdout, mirroring a simple scrollback tail rather than a
// full terminal renderer.
func attach(addr string, id tab.TabId) error {
	ctx := context.Background()
	c, err := dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer c.Close()

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err == nil {
			defer term.Restore(fd, oldState)
		}
	}

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)
	go func() {
		for range winch {
			if w, h, err := term.GetSize(fd); err == nil {
				c.Resize(context.Background(), id, ptysystem.PtySize{Rows: uint16(h), Cols: uint16(w)})
			}
		}
	}()

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				data := append([]byte(nil), buf[:n]...)
				if werr := c.WriteToTab(context.Background(), id, data); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	ct := rpcclient.NewClientTab(c, defaultDomainID, id)
	for {
		r := ct.Renderer()
		if r.HasDirtyLines() {
			for _, dl := range r.DirtyLines() {
				fmt.Print(dl.Text + "\r\n")
			}
			r.CleanDirtyLines()
		}
		if ct.IsDead() {
			return fmt.Errorf("lost connection to tab %d", id)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
