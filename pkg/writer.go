package converter

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type SessionInfoHDF5 struct {
	identifier   [STRLEN]byte
	description  [STRLEN]byte
	start_time   [STRLEN]byte
	pharmacology [STRLEN]byte
}

type SubjectHDF5 struct {
	subject_id [STRLEN]byte
	genotype   [STRLEN]byte
	age        [STRLEN]byte
	indicator  [STRLEN]byte
}

type TimeBaseHDF5 struct {
	starting_time float64
	rate          float64
}

type ImagingPlaneHDF5 struct {
	description  [STRLEN]byte
	indicator    [STRLEN]byte
	imaging_rate float64
}

type MaskPixelHDF5 struct {
	col    int32
	row    int32
	weight float32
}

type ExternalFileHDF5 struct {
	path           [STRLEN]byte
	starting_frame int64
}

type SourceFileHDF5 struct {
	kind [STRLEN]byte
	path [STRLEN]byte
}

// checkPathFits rejects paths the fixed-size container field cannot
// hold. Truncating would leave an unresolvable reference.
func checkPathFits(path string) error {
	if len(path) >= STRLEN {
		return fmt.Errorf("path %q is %d bytes, container field holds at most %d", path, len(path), STRLEN-1)
	}
	return nil
}

// Writer owns the output container for the duration of a conversion.
// Exactly one section is written at a time; nothing else holds a live
// reference while it mutates the file.
type Writer struct {
	File     *hdf5.File
	Filename string

	GeneralGroup     *hdf5.Group
	SubjectGroup     *hdf5.Group
	AcquisitionGroup *hdf5.Group
	ProcessingGroup  *hdf5.Group
	OphysGroup       *hdf5.Group
	UnitsGroup       *hdf5.Group

	RawOphys     *hdf5.Dataset
	FrameRows    int
	FrameCols    int
	FrameCounter int

	datasets []*hdf5.Dataset
	level    int
	closed   bool
}

func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	// Set string size for HDF5
	hdf5.SetStringLength(STRLEN)

	writer := &Writer{Filename: filename, level: compressionLevel}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Creating output container: %s", filename), "writer")
	}

	var err error
	if writer.File, err = createOutputFile(filename); err != nil {
		return nil, err
	}
	if writer.GeneralGroup, err = createGroup(writer.File, "general"); err != nil {
		return nil, err
	}
	if writer.SubjectGroup, err = createSubGroup(writer.GeneralGroup, "subject"); err != nil {
		return nil, err
	}
	if writer.AcquisitionGroup, err = createGroup(writer.File, "acquisition"); err != nil {
		return nil, err
	}
	if writer.ProcessingGroup, err = createGroup(writer.File, "processing"); err != nil {
		return nil, err
	}
	if writer.OphysGroup, err = createSubGroup(writer.ProcessingGroup, "ophys"); err != nil {
		return nil, err
	}
	if writer.UnitsGroup, err = createGroup(writer.File, "units"); err != nil {
		return nil, err
	}
	return writer, nil
}

// WriteSession stores the resolved session and subject metadata under
// /general.
func (w *Writer) WriteSession(meta Metadata) error {
	file := meta[SectionFile]
	session := SessionInfoHDF5{
		identifier:   convertToHdf5String(file["identifier"]),
		description:  convertToHdf5String(file["session_description"]),
		start_time:   convertToHdf5String(file["session_start_time"]),
		pharmacology: convertToHdf5String(file["pharmacology"]),
	}
	table, err := createTable(w.GeneralGroup, "session", SessionInfoHDF5{}, w.level)
	if err != nil {
		return err
	}
	w.datasets = append(w.datasets, table)
	if err := writeEntryToTable(table, session, 0); err != nil {
		return err
	}

	sub := meta[SectionSubject]
	subject := SubjectHDF5{
		subject_id: convertToHdf5String(sub["subject_id"]),
		genotype:   convertToHdf5String(sub["genotype"]),
		age:        convertToHdf5String(sub["age"]),
		indicator:  convertToHdf5String(sub["indicator"]),
	}
	subjectTable, err := createTable(w.SubjectGroup, "info", SubjectHDF5{}, w.level)
	if err != nil {
		return err
	}
	w.datasets = append(w.datasets, subjectTable)
	return writeEntryToTable(subjectTable, subject, 0)
}

// WriteImagingPlane stores the optical plane description under
// /general/imaging_plane.
func (w *Writer) WriteImagingPlane(description string, indicator string, rate float64) error {
	table, err := createTable(w.GeneralGroup, "imaging_plane", ImagingPlaneHDF5{}, w.level)
	if err != nil {
		return err
	}
	w.datasets = append(w.datasets, table)
	entry := ImagingPlaneHDF5{
		description:  convertToHdf5String(description),
		indicator:    convertToHdf5String(indicator),
		imaging_rate: rate,
	}
	return writeEntryToTable(table, entry, 0)
}

// WriteSeries stores one acquisition time series plus its timebase.
func (w *Writer) WriteSeries(name string, data []float64, tb TimeBase) error {
	return w.writeTimedArray(w.AcquisitionGroup, name, data, tb)
}

// WriteFluorescence stores the ROI response trace under the ophys
// processing module.
func (w *Writer) WriteFluorescence(data []float64, tb TimeBase) error {
	return w.writeTimedArray(w.OphysGroup, "fluorescence", data, tb)
}

func (w *Writer) writeTimedArray(group *hdf5.Group, name string, data []float64, tb TimeBase) error {
	dset, err := createDoubleArray(group, name, w.level)
	if err != nil {
		return err
	}
	w.datasets = append(w.datasets, dset)
	if len(data) > 0 {
		if err := writeDoubles(dset, &data, 0); err != nil {
			return err
		}
	}
	return w.writeTimeBase(group, name+"_timebase", tb)
}

func (w *Writer) writeTimeBase(group *hdf5.Group, name string, tb TimeBase) error {
	table, err := createTable(group, name, TimeBaseHDF5{}, w.level)
	if err != nil {
		return err
	}
	w.datasets = append(w.datasets, table)
	entry := TimeBaseHDF5{starting_time: tb.StartingTime, rate: tb.Rate}
	if err := writeEntryToTable(table, entry, 0); err != nil {
		return err
	}
	if len(tb.Timestamps) == 0 {
		return nil
	}
	// Non-uniform rate: the explicit per-sample timestamps are
	// authoritative and stored alongside.
	stamps, err := createDoubleArray(group, name+"_timestamps", w.level)
	if err != nil {
		return err
	}
	w.datasets = append(w.datasets, stamps)
	return writeDoubles(stamps, &tb.Timestamps, 0)
}

// WriteROIMask stores the segmented region under
// /processing/ophys/image_segmentation.
func (w *Writer) WriteROIMask(mask PixelMask) error {
	table, err := createTable(w.OphysGroup, "image_segmentation", MaskPixelHDF5{}, w.level)
	if err != nil {
		return err
	}
	w.datasets = append(w.datasets, table)
	if len(mask) == 0 {
		return nil
	}
	entries := make([]MaskPixelHDF5, len(mask))
	for i, px := range mask {
		entries[i] = MaskPixelHDF5{col: px.Col, row: px.Row, weight: px.Weight}
	}
	return writeArrayToTable(table, &entries, 0)
}

// WriteStackManifest stores the link-mode reference to the original raw
// imaging files: paths plus starting-frame offsets plus the timebase.
func (w *Writer) WriteStackManifest(m *StackManifest, tb TimeBase) error {
	table, err := createTable(w.AcquisitionGroup, "raw_ophys_external", ExternalFileHDF5{}, w.level)
	if err != nil {
		return err
	}
	w.datasets = append(w.datasets, table)

	entries, err := buildExternalEntries(m)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		if err := writeArrayToTable(table, &entries, 0); err != nil {
			return err
		}
	}
	return w.writeTimeBase(w.AcquisitionGroup, "raw_ophys_timebase", tb)
}

func buildExternalEntries(m *StackManifest) ([]ExternalFileHDF5, error) {
	entries := make([]ExternalFileHDF5, len(m.Paths))
	for i, path := range m.Paths {
		if err := checkPathFits(path); err != nil {
			return nil, fmt.Errorf("stack file reference: %w", err)
		}
		entries[i] = ExternalFileHDF5{
			path:           convertToHdf5String(path),
			starting_frame: m.StartingFrames[i],
		}
	}
	return entries, nil
}

// WriteSourceFiles records conversion provenance under
// /general/source_files: every input file with its modality kind.
func (w *Writer) WriteSourceFiles(files []SourceFile) error {
	table, err := createTable(w.GeneralGroup, "source_files", SourceFileHDF5{}, w.level)
	if err != nil {
		return err
	}
	w.datasets = append(w.datasets, table)

	entries := make([]SourceFileHDF5, len(files))
	for i, file := range files {
		if err := checkPathFits(file.Path); err != nil {
			return fmt.Errorf("source file reference: %w", err)
		}
		entries[i] = SourceFileHDF5{
			kind: convertToHdf5String(file.Kind.String()),
			path: convertToHdf5String(file.Path),
		}
	}
	if len(entries) == 0 {
		return nil
	}
	return writeArrayToTable(table, &entries, 0)
}

// BeginFrames creates the embed-mode imaging dataset. Frames are then
// appended one at a time; nothing is buffered beyond the current frame.
func (w *Writer) BeginFrames(nRows int, nCols int, tb TimeBase) error {
	dset, err := createFrameArray(w.AcquisitionGroup, "raw_ophys", nRows, nCols, w.level)
	if err != nil {
		return err
	}
	w.datasets = append(w.datasets, dset)
	w.RawOphys = dset
	w.FrameRows = nRows
	w.FrameCols = nCols
	w.FrameCounter = 0
	return w.writeTimeBase(w.AcquisitionGroup, "raw_ophys_timebase", tb)
}

func (w *Writer) WriteFrame(frame *Frame) error {
	if w.RawOphys == nil {
		return fmt.Errorf("frame dataset not created, call BeginFrames first")
	}
	if frame.Rows != w.FrameRows || frame.Cols != w.FrameCols {
		return fmt.Errorf("frame %d geometry %dx%d does not match stack %dx%d",
			w.FrameCounter, frame.Rows, frame.Cols, w.FrameRows, w.FrameCols)
	}
	if err := writeFrameToArray(w.RawOphys, &frame.Pix, w.FrameCounter, w.FrameRows, w.FrameCols); err != nil {
		return err
	}
	w.FrameCounter++
	return nil
}

// WriteSpikeTimes stores the derived spike annotations under /units.
func (w *Writer) WriteSpikeTimes(times []float64) error {
	dset, err := createDoubleArray(w.UnitsGroup, "spike_times", w.level)
	if err != nil {
		return err
	}
	w.datasets = append(w.datasets, dset)
	if len(times) == 0 {
		return nil
	}
	return writeDoubles(dset, &times, 0)
}

// Close releases every dataset and group. Idempotent; errors are
// collected, not short-circuited.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Closing output container %s", w.Filename), "writer")
	}

	var errs []error
	for _, dset := range w.datasets {
		if err := dset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing dataset: %w", err))
		}
	}
	if err := w.SubjectGroup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing subject group: %w", err))
	}
	if err := w.GeneralGroup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing general group: %w", err))
	}
	if err := w.AcquisitionGroup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing acquisition group: %w", err))
	}
	if err := w.OphysGroup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing ophys group: %w", err))
	}
	if err := w.ProcessingGroup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing processing group: %w", err))
	}
	if err := w.UnitsGroup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing units group: %w", err))
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
