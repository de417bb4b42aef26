package converter

type Configuration struct {
	PathProcessed      string   `json:"path_processed"`
	PathRaw            string   `json:"path_raw"`
	PathsTiff          []string `json:"paths_tiff"`
	PathOutput         string   `json:"path_output"`
	LinkRawOphys       bool     `json:"link_raw_ophys"`
	Traces             []string `json:"traces"`
	SessionDescription string   `json:"session_description"`
	NoDB               bool     `json:"no_db"`
	SubjectsFile       string   `json:"subjects_file"`
	Host               string   `json:"host"`
	User               string   `json:"user"`
	Passwd             string   `json:"pass"`
	DBName             string   `json:"dbname"`
	Verbosity          int      `json:"verbosity"`
	CompressionLevel   int      `json:"compression_level"`
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
