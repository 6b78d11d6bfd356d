package host

// AudioOutput is the real-time output device the reference host drives the
// Engine through. NewOtoBackend and NewHeadlessBackend are selected at
// build time by the `headless` build tag, the same pairing the teacher
// uses for its OtoPlayer.
type AudioOutput interface {
	// Start begins pulling audio from the Engine on the backend's own
	// callback thread (oto) or does nothing (headless).
	Start()
	Stop()
	Close()
	IsStarted() bool
}
