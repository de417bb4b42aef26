package converter

// SourceKind identifies which modality a source file belongs to.
type SourceKind int

const (
	SourceProcessed SourceKind = iota
	SourceRawElectrical
	SourceRawImaging
)

func (k SourceKind) String() string {
	switch k {
	case SourceProcessed:
		return "processed"
	case SourceRawElectrical:
		return "raw-electrical"
	case SourceRawImaging:
		return "raw-imaging"
	default:
		return "unknown"
	}
}

// TimeBase places a series on the shared timeline. Sample i occurs at
// StartingTime + i/Rate unless an explicit Timestamps sequence is set,
// in which case Timestamps[i] is authoritative.
type TimeBase struct {
	Rate         float64
	StartingTime float64
	Timestamps   []float64
}

// SyncAnchor pairs an imaging frame index with the electrical sample
// recorded at its boundary.
type SyncAnchor struct {
	Frame  int64
	Sample int64
}

// SyncMap is an ordered anchor sequence. Frame and Sample are both
// strictly increasing along the map.
type SyncMap []SyncAnchor

// Alignment is the shared timeline anchor derived from a SyncMap.
// When Aligned is false both starts fall back to zero.
type Alignment struct {
	ElectricalStart float64
	OpticalStart    float64
	Aligned         bool
}

// MaskPixel is one (column, row, weight) entry of a region mask.
type MaskPixel struct {
	Col    int32
	Row    int32
	Weight float32
}

// PixelMask is the structured form of a segmented region of interest.
type PixelMask []MaskPixel

// StackManifest references the raw imaging files of a session without
// copying pixel data. StartingFrames[i] is the cumulative frame offset
// at which file i begins.
type StackManifest struct {
	Paths          []string
	StartingFrames []int64
	TotalFrames    int64
}

// Frame is one decoded imaging frame, row-major.
type Frame struct {
	Pix  []int16
	Rows int
	Cols int
}

// SourceFile is one provenance entry: an input file and its modality.
type SourceFile struct {
	Kind SourceKind
	Path string
}

// SubjectInfo holds the fixed biological metadata the registry keeps
// per subject.
type SubjectInfo struct {
	Line       string `json:"line"`
	Age        string `json:"age"`
	Anesthesia string `json:"anesthesia"`
	Indicator  string `json:"indicator"`
}

// Discovered collects the identifier-class facts read from the source
// files and the registry. These take precedence over caller metadata.
type Discovered struct {
	SessionID string
	SubjectID string
	StartTime string
	Subject   SubjectInfo
}
