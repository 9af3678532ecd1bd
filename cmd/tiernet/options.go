package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/lex00/wetwire-tiernet-go/internal/config"
	"github.com/lex00/wetwire-tiernet-go/internal/logging"
	"github.com/lex00/wetwire-tiernet-go/internal/pipeline"
)

// globalOptions are the persistent root flags.
type globalOptions struct {
	configPath   string
	verbose      bool
	logFormat    string
	directAccess bool
}

// load reads the configuration, applies flag overrides and builds the
// logger. The caller must call the returned close func when done.
func (o *globalOptions) load() (*config.Config, *zap.Logger, func() error, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if o.directAccess {
		cfg.Traffic.DirectAccess = true
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closeLog, nil
}

// run loads the configuration and runs the full pipeline.
func (o *globalOptions) run() (*pipeline.Result, error) {
	cfg, logger, closeLog, err := o.load()
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeLog() }()
	return pipeline.Run(cfg, logger)
}

// writeOutput writes data to outputFile, or to w when no file is given.
func writeOutput(w io.Writer, data []byte, outputFile string) error {
	if outputFile == "" {
		_, err := w.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputFile, err)
	}
	return nil
}
