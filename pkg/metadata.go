package converter

import (
	"golang.org/x/exp/maps"
)

// Metadata maps section name -> field -> value. The converter reads the
// "NWBFile" and "Subject" sections; any other caller-supplied section
// passes through to the output untouched.
type Metadata map[string]map[string]string

const (
	SectionFile    = "NWBFile"
	SectionSubject = "Subject"
)

// ResolveMetadata merges caller-supplied metadata with the facts
// discovered in the source files and the registry. Discovered
// identifier-class fields always overwrite caller values under the same
// key, since those must reflect ground truth found in the data file.
// Everything else the caller supplied passes through unchanged.
func ResolveMetadata(caller Metadata, d Discovered) Metadata {
	merged := make(Metadata, len(caller)+2)
	for section, fields := range caller {
		merged[section] = maps.Clone(fields)
	}
	if merged[SectionFile] == nil {
		merged[SectionFile] = make(map[string]string)
	}
	if merged[SectionSubject] == nil {
		merged[SectionSubject] = make(map[string]string)
	}

	file := merged[SectionFile]
	file["identifier"] = d.SessionID
	file["session_start_time"] = d.StartTime
	file["pharmacology"] = d.Subject.Anesthesia
	if _, ok := file["session_description"]; !ok {
		file["session_description"] = "session description"
	}

	subject := merged[SectionSubject]
	subject["subject_id"] = d.SubjectID
	subject["genotype"] = d.Subject.Line
	subject["age"] = d.Subject.Age
	subject["indicator"] = d.Subject.Indicator

	return merged
}
