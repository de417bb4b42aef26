package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	converter "github.com/catalystneuro/oephys2nwb/pkg"
)

var logger Logger

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	configuration, err := LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	converter.SetConfiguration(configuration)
	converter.SetLogger(logger)

	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading configuration file: %s", *configFilename), "main")
		printConfiguration(configuration, logger)
	}

	registry, cleanup, err := buildRegistry(configuration)
	if err != nil {
		message := fmt.Errorf("error setting up subject registry: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	defer cleanup()

	start := time.Now()
	report, err := converter.Convert(configuration, registry, nil)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	logger.Info(fmt.Sprintf("Session %s (subject %s) written to %s",
		report.SessionID, report.SubjectID, report.OutputPath), "main")
	for name, samples := range report.SeriesSamples {
		logger.Info(fmt.Sprintf("Series %s: %d samples", name, samples), "main")
	}
	if report.FramesLinked > 0 {
		logger.Info(fmt.Sprintf("Linked %d raw imaging frames", report.FramesLinked), "main")
	}
	if report.FramesWritten > 0 {
		logger.Info(fmt.Sprintf("Embedded %d raw imaging frames", report.FramesWritten), "main")
	}
	logger.Info(fmt.Sprintf("Spike times: %d", report.SpikesDetected), "main")
	if !report.Aligned {
		logger.Info("Warning: no frame sync found, modalities not aligned", "main")
	}

	duration := time.Since(start)
	logger.Info(fmt.Sprintf("Total time: %d ms", duration.Milliseconds()), "main")
}

func buildRegistry(configuration converter.Configuration) (converter.SubjectRegistry, func(), error) {
	if configuration.NoDB {
		registry, err := converter.LoadStaticRegistry(configuration.SubjectsFile)
		if err != nil {
			return nil, nil, err
		}
		return registry, func() {}, nil
	}

	db, err := converter.ConnectToRegistry(configuration.User, configuration.Passwd,
		configuration.Host, configuration.DBName)
	if err != nil {
		return nil, nil, err
	}
	return &converter.DBRegistry{DB: db}, func() { db.Close() }, nil
}
