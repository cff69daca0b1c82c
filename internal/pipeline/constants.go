package pipeline

// Chunk sizes in seconds per quality tier
const (
	chunkSecondsHigh   = 5.0
	chunkSecondsMedium = 10.0
	chunkSecondsLow    = 20.0
)

// Long inputs are split into fewer, larger chunks
const (
	longInputSeconds   = 300.0 // inputs longer than this use longChunkSeconds
	longChunkSeconds   = 30.0  // minimum chunk size for long inputs
	defaultWindowSlack = 1     // extra capacity when building the window list
)
