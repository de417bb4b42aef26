package converter

import (
	"fmt"
	"io"
	"strconv"
	"time"
)

// Report summarizes one finished conversion.
type Report struct {
	OutputPath     string
	SessionID      string
	SubjectID      string
	Aligned        bool
	SeriesSamples  map[string]int
	FramesWritten  int64
	FramesLinked   int64
	SpikesDetected int
}

// Series names follow the source converter.
var traceDatasets = map[string]struct {
	key  string
	name string
}{
	"raw":      {KeyRawVoltage, "raw_membrane_voltage"},
	"filtered": {KeyFiltVoltage, "filtered_membrane_voltage"},
}

// Convert runs the whole assembly in a fixed order: open sources,
// resolve rates and the shared timebase, resolve metadata, then attach
// the electrical series, the segmented ROI and fluorescence, the raw
// imaging stack (linked or embedded) and the spike annotations. Each
// step either fully succeeds or aborts the remaining steps with its
// name attached. Embed mode may leave already-flushed frames behind on
// failure; nothing is rolled back.
func Convert(config Configuration, registry SubjectRegistry, callerMeta Metadata) (*Report, error) {
	SetConfiguration(config)

	// Sources open first: a missing input must fail before any output
	// container exists.
	processed, err := OpenSource(config.PathProcessed, SourceProcessed)
	if err != nil {
		return nil, &ConvertStepError{Step: "open-sources", Err: err}
	}
	defer processed.Close()

	if config.PathRaw != "" {
		// Opened for validation only; every series the output carries
		// comes from the processed file.
		if err := validateRawElectrical(config.PathRaw); err != nil {
			return nil, &ConvertStepError{Step: "open-sources", Err: err}
		}
	}

	report := &Report{OutputPath: config.PathOutput, SeriesSamples: make(map[string]int)}

	ephysPeriod, ephysRate, ophysRate, align, err := resolveTimebases(processed)
	if err != nil {
		return nil, &ConvertStepError{Step: "resolve-rates", Err: err}
	}
	report.Aligned = align.Aligned

	meta, err := resolveSessionMetadata(processed, registry, callerMeta, config)
	if err != nil {
		return nil, &ConvertStepError{Step: "resolve-metadata", Err: err}
	}
	report.SessionID = meta[SectionFile]["identifier"]
	report.SubjectID = meta[SectionSubject]["subject_id"]

	writer, err := NewWriter(config.PathOutput, config.CompressionLevel)
	if err != nil {
		return nil, &ConvertStepError{Step: "create-output", Err: err}
	}
	defer writer.Close()

	if err := writer.WriteSession(meta); err != nil {
		return nil, &ConvertStepError{Step: "write-session", Err: err}
	}
	if err := writer.WriteSourceFiles(sourceFileList(config)); err != nil {
		return nil, &ConvertStepError{Step: "write-session", Err: err}
	}

	if err := attachElectricalSeries(processed, writer, config.Traces, ephysRate, align, report); err != nil {
		return nil, &ConvertStepError{Step: "electrical-series", Err: err}
	}

	if err := attachImagingPlane(processed, writer, meta, ophysRate); err != nil {
		return nil, &ConvertStepError{Step: "imaging-plane", Err: err}
	}

	if err := attachOphysProcessed(processed, writer, ophysRate, align, report); err != nil {
		return nil, &ConvertStepError{Step: "ophys-processed", Err: err}
	}

	if err := attachOphysAcquisition(writer, config, ophysRate, align, report); err != nil {
		return nil, &ConvertStepError{Step: "ophys-acquisition", Err: err}
	}

	if err := attachSpikeUnits(processed, writer, ephysPeriod, report); err != nil {
		return nil, &ConvertStepError{Step: "spike-units", Err: err}
	}

	if err := writer.Close(); err != nil {
		return nil, &ConvertStepError{Step: "close-output", Err: err}
	}
	if config.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Conversion finished: %s", config.PathOutput), "converter")
	}
	return report, nil
}

// validateRawElectrical checks the raw electrophysiology container can
// be opened and, when it stores a sample period, that the period is
// usable. The handle is released before any output is created.
func validateRawElectrical(path string) error {
	raw, err := OpenSource(path, SourceRawElectrical)
	if err != nil {
		return err
	}
	if raw.Has(KeyEphysPeriod) {
		period, err := raw.Scalar(KeyEphysPeriod)
		if err != nil {
			raw.Close()
			return err
		}
		if _, err := SamplingRate(period); err != nil {
			raw.Close()
			return err
		}
	}
	return raw.Close()
}

// sourceFileList collects every input file for the provenance table.
func sourceFileList(config Configuration) []SourceFile {
	files := []SourceFile{{Kind: SourceProcessed, Path: config.PathProcessed}}
	if config.PathRaw != "" {
		files = append(files, SourceFile{Kind: SourceRawElectrical, Path: config.PathRaw})
	}
	for _, path := range config.PathsTiff {
		files = append(files, SourceFile{Kind: SourceRawImaging, Path: path})
	}
	return files
}

func resolveTimebases(processed *Source) (float64, float64, float64, Alignment, error) {
	ephysPeriod, err := processed.Scalar(KeyEphysPeriod)
	if err != nil {
		return 0, 0, 0, Alignment{}, err
	}
	ephysRate, err := SamplingRate(ephysPeriod)
	if err != nil {
		return 0, 0, 0, Alignment{}, err
	}
	ophysPeriod, err := processed.Scalar(KeyOphysPeriod)
	if err != nil {
		return 0, 0, 0, Alignment{}, err
	}
	ophysRate, err := SamplingRate(ophysPeriod)
	if err != nil {
		return 0, 0, 0, Alignment{}, err
	}

	// The frame-sync array is optional. Without it, or with a malformed
	// one, both modalities start at zero (degraded alignment).
	var align Alignment
	if processed.Has(KeyFrameSync) {
		frameSync, err := processed.Ints1D(KeyFrameSync)
		if err != nil {
			return 0, 0, 0, Alignment{}, err
		}
		syncMap, ok := SyncMapFromFrameIndices(frameSync)
		if ok {
			align = Align(syncMap, ephysPeriod)
		}
	}
	if !align.Aligned {
		logger.Info("No usable frame sync, both modalities start at t=0", "converter")
	}
	return ephysPeriod, ephysRate, ophysRate, align, nil
}

func resolveSessionMetadata(processed *Source, registry SubjectRegistry,
	callerMeta Metadata, config Configuration) (Metadata, error) {
	sessionRaw, err := processed.Scalar(KeySessionID)
	if err != nil {
		return nil, err
	}
	subjectRaw, err := processed.Scalar(KeySubjectID)
	if err != nil {
		return nil, err
	}
	sessionID := strconv.Itoa(int(sessionRaw))
	subjectID := strconv.Itoa(int(subjectRaw))

	info, err := registry.Lookup(subjectID)
	if err != nil {
		return nil, err
	}

	discovered := Discovered{
		SessionID: sessionID,
		SubjectID: subjectID,
		StartTime: time.Now().Format(time.RFC3339),
		Subject:   info,
	}
	meta := ResolveMetadata(callerMeta, discovered)
	if config.SessionDescription != "" {
		meta[SectionFile]["session_description"] = config.SessionDescription
	}
	return meta, nil
}

func attachElectricalSeries(processed *Source, writer *Writer, traces []string,
	ephysRate float64, align Alignment, report *Report) error {
	for _, trace := range traces {
		ds, ok := traceDatasets[trace]
		if !ok {
			return fmt.Errorf("unknown trace %q: want \"raw\" or \"filtered\"", trace)
		}
		data, err := processed.Floats1D(ds.key)
		if err != nil {
			return err
		}
		tb := TimeBase{Rate: ephysRate, StartingTime: align.ElectricalStart}
		if err := writer.WriteSeries(ds.name, data, tb); err != nil {
			return err
		}
		report.SeriesSamples[ds.name] = len(data)
	}
	return nil
}

// attachImagingPlane describes the optical plane: presence of a depth
// dataset marks a high-zoom session.
func attachImagingPlane(processed *Source, writer *Writer, meta Metadata, ophysRate float64) error {
	description := "low zoom"
	if processed.Has(KeyDepth) {
		description = "high zoom"
	}
	indicator := meta[SectionSubject]["indicator"]
	return writer.WriteImagingPlane(description, indicator, ophysRate)
}

func attachOphysProcessed(processed *Source, writer *Writer,
	ophysRate float64, align Alignment, report *Report) error {
	nRowsRaw, err := processed.Scalar(KeyLinesPerFrame)
	if err != nil {
		return err
	}
	nColsRaw, err := processed.Scalar(KeyPixelsPerLine)
	if err != nil {
		return err
	}
	nRows := int(nRowsRaw)
	nCols := int(nColsRaw)

	indices, err := processed.Ints1D(KeyPixelList)
	if err != nil {
		return err
	}
	mask, err := BuildPixelMask(indices, nRows, nCols)
	if err != nil {
		return err
	}
	if err := writer.WriteROIMask(mask); err != nil {
		return err
	}

	fluorescence, err := processed.Floats1D(KeyFluorescence)
	if err != nil {
		return err
	}
	tb := TimeBase{Rate: ophysRate, StartingTime: align.OpticalStart}
	if err := writer.WriteFluorescence(fluorescence, tb); err != nil {
		return err
	}
	report.SeriesSamples["fluorescence"] = len(fluorescence)
	return nil
}

func attachOphysAcquisition(writer *Writer, config Configuration,
	ophysRate float64, align Alignment, report *Report) error {
	if len(config.PathsTiff) == 0 {
		return nil
	}
	tb := TimeBase{Rate: ophysRate, StartingTime: align.OpticalStart}

	if config.LinkRawOphys {
		manifest, err := BuildStackManifest(config.PathsTiff)
		if err != nil {
			return err
		}
		if err := writer.WriteStackManifest(manifest, tb); err != nil {
			return err
		}
		report.FramesLinked = manifest.TotalFrames
		return nil
	}

	// Embed mode: one forward pass, one frame in memory at a time.
	// Frames flushed before a failure stay in the container.
	iterator := NewFrameIterator(config.PathsTiff)
	defer iterator.Close()
	for {
		frame, err := iterator.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if writer.RawOphys == nil {
			if err := writer.BeginFrames(frame.Rows, frame.Cols, tb); err != nil {
				return err
			}
		}
		if err := writer.WriteFrame(frame); err != nil {
			return err
		}
	}
	report.FramesWritten = int64(writer.FrameCounter)
	return nil
}

// attachSpikeUnits converts the binary spike-indicator array into spike
// times: every nonzero entry at index i becomes i * ephysPeriod.
func attachSpikeUnits(processed *Source, writer *Writer, ephysPeriod float64, report *Report) error {
	spikes, err := processed.Ints1D(KeySpikes)
	if err != nil {
		return err
	}
	times := SpikeTimes(spikes, ephysPeriod)
	if err := writer.WriteSpikeTimes(times); err != nil {
		return err
	}
	report.SpikesDetected = len(times)
	return nil
}

// SpikeTimes derives spike times from a binary spike-train array.
func SpikeTimes(spikes []int64, period float64) []float64 {
	var times []float64
	for i, v := range spikes {
		if v != 0 {
			times = append(times, float64(i)*period)
		}
	}
	return times
}
