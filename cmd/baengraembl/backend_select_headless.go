//go:build headless

package main

import "github.com/midislave/baengraembl/host"

func newBackend(cfg host.Config, engine *host.Engine) (host.AudioOutput, error) {
	return host.NewHeadlessBackend(cfg.SampleRate, engine)
}
