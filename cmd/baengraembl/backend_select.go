//go:build !headless

package main

import "github.com/midislave/baengraembl/host"

// newBackend opens the real-time oto backend regardless of cfg.Backend in
// this build; the headless binary (built with -tags headless) never links
// oto at all, so the choice between the two is made at build time rather
// than read from config.
func newBackend(cfg host.Config, engine *host.Engine) (host.AudioOutput, error) {
	return host.NewOtoBackend(cfg.SampleRate, engine)
}
