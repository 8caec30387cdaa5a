package main

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ehrlich-b/wezmux/internal/config"
	"github.com/ehrlich-b/wezmux/internal/domain"
	"github.com/ehrlich-b/wezmux/internal/guiexec"
	"github.com/ehrlich-b/wezmux/internal/logger"
	"github.com/ehrlich-b/wezmux/internal/mux"
	"github.com/ehrlich-b/wezmux/internal/ptysystem"
	"github.com/ehrlich-b/wezmux/internal/rpcserver"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "wezmux-server",
		Short: "wezmux mux server — hosts tabs and serves the RPC protocol to remote clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a wezmux.yaml config file")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ln, err := listen(cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Listen, err)
	}
	defer ln.Close()

	d := domain.NewLocalDomain(ptysystem.NewLocal(), cfg.Shell, cfg.ScrollbackLines)

	var m *mux.Mux
	loop := guiexec.NewLoop(reapDeadTabs(&m))
	loop.Executor = guiexec.NewChanExecutor(cfg.GUIChannelCapacity)
	defer loop.Stop()
	go serviceLoop(loop)

	m = mux.New(d, loop.Executor)
	mux.Set(m)
	loop.StartTickThread()

	s := rpcserver.New(m)
	logger.Info("wezmux-server listening", "addr", cfg.Listen)
	return s.Serve(ln)
}

// reapDeadTabs returns the 50ms tick work item (spec §4.6(c)) that detects
// children which exited without the reader thread observing pty EOF — a
// backgrounded double-fork that closes its std handles but leaves the pty
// master open, for instance — and removes their tab. *m is read through a
// pointer since the Loop that will run this tick is constructed before the
// Mux it ticks against.
func reapDeadTabs(m **mux.Mux) func() {
	return func() {
		if *m == nil {
			return
		}
		for _, t := range (*m).IterTabs() {
			if t.IsDead() {
				(*m).RemoveTab(t.TabId())
			}
		}
	}
}

// serviceLoop stands in for the GUI host's native event loop in this
// headless server: it wakes whenever cross-thread work (pty bytes, tab
// removal) is queued and services it on what is, here, the only thread
// that ever touches Mux state.
func serviceLoop(loop *guiexec.Loop) {
	for range loop.Executor.WakeupChan() {
		loop.ServiceOnce()
	}
}

// listen parses a "unix:///path/to.sock" or "tcp://host:port" address into
// a net.Listener, removing any stale unix socket file first.
func listen(addr string) (net.Listener, error) {
	switch {
	case strings.HasPrefix(addr, "unix://"):
		path := strings.TrimPrefix(addr, "unix://")
		if _, err := os.Stat(path); err == nil {
			os.Remove(path)
		}
		return net.Listen("unix", path)

	case strings.HasPrefix(addr, "tcp://"):
		return net.Listen("tcp", strings.TrimPrefix(addr, "tcp://"))

	default:
		return nil, fmt.Errorf("unrecognized listen scheme in %q (want unix:// or tcp://)", addr)
	}
}
