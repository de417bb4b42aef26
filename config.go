package main

import (
	"encoding/json"
	"fmt"
	"os"

	converter "github.com/catalystneuro/oephys2nwb/pkg"
)

func LoadConfiguration(filename string) (converter.Configuration, error) {
	var config converter.Configuration

	// Set default values
	config.LinkRawOphys = true
	config.Traces = []string{"raw", "filtered"}
	config.NoDB = false
	config.Host = "localhost"
	config.User = "oephysreader"
	config.Passwd = "readonly"
	config.DBName = "subjects"
	config.Verbosity = 0
	config.CompressionLevel = 4

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func printConfiguration(config converter.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("Processed file: %s", config.PathProcessed), "config")
	logger.Info(fmt.Sprintf("Raw ephys file: %s", config.PathRaw), "config")
	logger.Info(fmt.Sprintf("Tiff files: %v", config.PathsTiff), "config")
	logger.Info(fmt.Sprintf("Output file: %s", config.PathOutput), "config")
	logger.Info(fmt.Sprintf("Link raw ophys: %t", config.LinkRawOphys), "config")
	logger.Info(fmt.Sprintf("Traces: %v", config.Traces), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Subjects file: %s", config.SubjectsFile), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
}
