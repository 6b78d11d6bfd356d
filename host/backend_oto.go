//go:build !headless

package host

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// OtoBackend adapts an Engine to oto's io.Reader-driven Player. The Engine
// pointer is swapped via atomic.Pointer so the realtime Read callback never
// takes a lock on its hot path, the same technique the teacher's OtoPlayer
// uses for its chip pointer.
type OtoBackend struct {
	ctx       *oto.Context
	player    *oto.Player
	engine    atomic.Pointer[Engine]
	sampleBuf []float32
	started   bool
	mutex     sync.Mutex // setup/control only, never touched by Read
}

// NewOtoBackend opens the real output device at the given sample rate and
// wires engine in as the sample source.
func NewOtoBackend(sampleRate int, engine *Engine) (*OtoBackend, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("baengraembl: host: open oto context: %w", err)
	}
	<-ready

	ob := &OtoBackend{ctx: ctx, sampleBuf: make([]float32, 4096)}
	ob.engine.Store(engine)
	ob.player = ctx.NewPlayer(ob)
	return ob, nil
}

// Read implements io.Reader for oto.Player. It loads the engine pointer
// atomically (no lock on the hot path), renders directly into the
// pre-allocated sample buffer, and byte-copies the result into p.
func (ob *OtoBackend) Read(p []byte) (n int, err error) {
	e := ob.engine.Load()
	if e == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	numSamples := len(p) / 4
	if len(ob.sampleBuf) < numSamples {
		ob.sampleBuf = make([]float32, numSamples)
	}
	samples := ob.sampleBuf[:numSamples]

	e.Process(samples)

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:len(p)])
	return len(p), nil
}

func (ob *OtoBackend) Start() {
	ob.mutex.Lock()
	defer ob.mutex.Unlock()
	if !ob.started && ob.player != nil {
		ob.player.Play()
		ob.started = true
	}
}

func (ob *OtoBackend) Stop() {
	ob.mutex.Lock()
	defer ob.mutex.Unlock()
	if ob.started && ob.player != nil {
		ob.player.Pause()
		ob.started = false
	}
}

func (ob *OtoBackend) Close() {
	ob.Stop()
	ob.mutex.Lock()
	defer ob.mutex.Unlock()
	if ob.player != nil {
		ob.player.Close()
		ob.player = nil
	}
}

func (ob *OtoBackend) IsStarted() bool {
	ob.mutex.Lock()
	defer ob.mutex.Unlock()
	return ob.started
}
