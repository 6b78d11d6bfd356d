//go:build headless

package host

// HeadlessBackend renders no audio: Start and Stop only toggle a flag and
// the engine is never pulled. Used in CI and tests where no real output
// device is available.
type HeadlessBackend struct {
	engine  *Engine
	started bool
}

func NewHeadlessBackend(sampleRate int, engine *Engine) (*HeadlessBackend, error) {
	return &HeadlessBackend{engine: engine}, nil
}

func (hb *HeadlessBackend) Start() { hb.started = true }
func (hb *HeadlessBackend) Stop()  { hb.started = false }
func (hb *HeadlessBackend) Close() { hb.started = false }
func (hb *HeadlessBackend) IsStarted() bool { return hb.started }
