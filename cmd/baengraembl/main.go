// Command baengraembl is the reference host for the audio engine: it loads
// a YAML config and an optional patch file, wires up a host.Engine, and
// drives it through the real-time oto backend (or the headless backend
// under the `headless` build tag) until interrupted.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/midislave/baengraembl/host"
	"github.com/midislave/baengraembl/patch"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML host config (defaults built in if omitted)")
	patchPath := pflag.StringP("patch", "p", "", "path to a patch file to load at startup (overrides the config's patchPath)")
	seed := pflag.Int64P("seed", "s", 1, "RNG seed for the scheduler and Clouds granular engine")
	pflag.Parse()

	cfg := host.DefaultConfig()
	if *configPath != "" {
		loaded, err := host.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "baengraembl: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *patchPath != "" {
		cfg.PatchPath = *patchPath
	}

	engine := host.NewEngine(float64(cfg.SampleRate), cfg.BlockSize, 2048, *seed)

	if cfg.PatchPath != "" {
		data, err := os.ReadFile(cfg.PatchPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "baengraembl: read patch %q: %v\n", cfg.PatchPath, err)
			os.Exit(1)
		}
		p, err := patch.Unmarshal(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "baengraembl: load patch %q: %v\n", cfg.PatchPath, err)
			os.Exit(1)
		}
		engine.Mailbox.Send(host.Command{Kind: host.CmdLoadPatch, Patch: p})
	}

	backend, err := newBackend(cfg, engine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "baengraembl: audio backend: %v\n", err)
		os.Exit(1)
	}
	backend.Start()
	defer backend.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watchEvents(ctx, engine) })
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "baengraembl: %v\n", err)
		os.Exit(1)
	}
}

// watchEvents is the control thread's consumer of the audio thread's event
// mailbox: it logs dropout warnings via the standard logger (the only
// logging this core does outside patch load/parse errors) and discards
// every other event kind.
func watchEvents(ctx context.Context, engine *host.Engine) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-engine.Mailbox.Events():
			switch ev.Kind {
			case host.EventDropout:
				log.Printf("baengraembl: dropout severity=%d render=%.4fs deadline=%.4fs", ev.Severity, ev.RenderTime, ev.Deadline)
			}
		}
	}
}
