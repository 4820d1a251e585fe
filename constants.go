package wavefield

// Band defaults
const (
	// DefaultNumBands is the filter bank resolution used when the
	// configuration leaves NumBands at zero.
	DefaultNumBands = 128

	// Cascade depths per processing mode. The spatializer uses a deeper
	// cascade for narrower bands at the cost of longer group delay.
	defaultAnalyzerDepth    = 3
	defaultSpatializerDepth = 8
	defaultEmphasizerDepth  = 3
)

// Streaming driver constants
const (
	// blockSize is the number of input frames consumed per driver
	// iteration. Band workers each scan the full block.
	blockSize = 32768

	// maxWorkerAccuSamples caps each worker's output accumulator at 16 MiB.
	// Wide matrix renderers (amplitude/phase emit bands*channels columns)
	// shrink the driver block instead of growing the buffer.
	maxWorkerAccuSamples = 1 << 21

	// historySize is the circular history capacity in frames. Must be a
	// power of two and at least blockSize plus the longest band delay.
	historySize = 1 << 18

	historyMask = historySize - 1
)

// Channel constants
const (
	stereoChannels = 2   // Input channel count for spatial modes
	maxChannels    = 256 // Maximum supported output channel count
)
