package converter

import "fmt"

// SyncMapFromFrameIndices builds a SyncMap from an explicit per-frame
// list of electrical sample indices: entry i is the sample recorded at
// the boundary of imaging frame i. Both columns must end up strictly
// increasing; a malformed list yields the degraded (nil, false) result
// rather than a failure, since precise alignment is optional for the
// source format.
func SyncMapFromFrameIndices(samples []int64) (SyncMap, bool) {
	if len(samples) == 0 {
		return nil, false
	}
	m := make(SyncMap, len(samples))
	for i, s := range samples {
		if s < 0 || (i > 0 && s <= m[i-1].Sample) {
			logger.Error(fmt.Sprintf("frame sync not strictly increasing at frame %d, falling back to start=0", i))
			return nil, false
		}
		m[i] = SyncAnchor{Frame: int64(i), Sample: s}
	}
	return m, true
}

// SyncMapFromSampleMarkers builds a SyncMap from a per-electrical-sample
// marker of the most recent imaging frame boundary. When several samples
// carry the same frame value, the earliest sample index is the anchor.
func SyncMapFromSampleMarkers(markers []int64) (SyncMap, bool) {
	var m SyncMap
	lastFrame := int64(-1)
	for i, frame := range markers {
		if frame < 0 || frame <= lastFrame {
			continue
		}
		m = append(m, SyncAnchor{Frame: frame, Sample: int64(i)})
		lastFrame = frame
	}
	if len(m) == 0 {
		return nil, false
	}
	return m, true
}

// Align turns a SyncMap into the shared timeline anchor: the electrical
// series keeps start 0 and imaging frame 0 lands on the electrical
// sample of the first anchor. An empty map degrades to start=0 for both
// modalities; callers needing precise alignment must check Aligned.
func Align(m SyncMap, electricalPeriod float64) Alignment {
	if len(m) == 0 {
		return Alignment{}
	}
	return Alignment{
		ElectricalStart: 0,
		OpticalStart:    float64(m[0].Sample) * electricalPeriod,
		Aligned:         true,
	}
}
