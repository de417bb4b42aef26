package converter

import (
	"fmt"
	"math"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// Dataset keys as stored by the acquisition and segmentation tools.
const (
	KeySessionID     = "tid"
	KeySubjectID     = "aid"
	KeyEphysPeriod   = "dte"
	KeyOphysPeriod   = "dto"
	KeyRawVoltage    = "Vm"
	KeyFiltVoltage   = "Vmfd"
	KeySpikes        = "spk"
	KeyPixelList     = "pixel_list"
	KeyLinesPerFrame = "linesPerFrame"
	KeyPixelsPerLine = "pixelsPerLine"
	KeyFluorescence  = "f_cell"
	KeyFrameSync     = "iFrames"
	KeyDepth         = "depth"
)

// Source is one open modality file. It owns the underlying handle for
// its lifetime; Close is idempotent and must run on every exit path.
type Source struct {
	Path   string
	Kind   SourceKind
	file   *hdf5.File
	closed bool
}

func OpenSource(path string, kind SourceKind) (*Source, error) {
	file, err := openSourceFile(path)
	if err != nil {
		return nil, &SourceUnavailableError{Path: path, Err: err}
	}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Opened %s source: %s", kind, path), "source")
	}
	return &Source{Path: path, Kind: kind, file: file}, nil
}

func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

// Has reports whether the named dataset is present.
func (s *Source) Has(name string) bool {
	return datasetExists(s.file, name)
}

// Scalar reads the first element of the named dataset. The source
// format stores scalar parameters as length-1 arrays.
func (s *Source) Scalar(name string) (float64, error) {
	data, err := s.Floats1D(name)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, &MissingFieldError{Field: name, Path: s.Path}
	}
	return data[0], nil
}

// Floats1D reads the named dataset squeezed to one dimension.
func (s *Source) Floats1D(name string) ([]float64, error) {
	if !s.Has(name) {
		return nil, &MissingFieldError{Field: name, Path: s.Path}
	}
	data, err := readDoubles(s.file, name)
	if err != nil {
		return nil, fmt.Errorf("reading %q from %q: %w", name, s.Path, err)
	}
	return data, nil
}

// Ints1D reads the named dataset as integers. The source tool stores
// index lists as doubles, so values are rounded on the way in.
func (s *Source) Ints1D(name string) ([]int64, error) {
	data, err := s.Floats1D(name)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(data))
	for i, v := range data {
		out[i] = int64(math.Round(v))
	}
	return out, nil
}
