package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/woozymasta/dzmeasure/internal/config"
	"github.com/woozymasta/dzmeasure/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Input  string `short:"i" long:"in"     description:"Input config path (legacy or current). Reads from stdin if empty"`
	Output string `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"yaml"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	// Read Input
	var inputData []byte
	var err error

	if opts.Input != "" {
		inputData, err = os.ReadFile(opts.Input)
	} else {
		inputData, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		log.Fatal().Err(err).Str("file", opts.Input).Msg("Failed to read input")
	}

	cfg, err := config.Parse(inputData)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse configuration")
	}

	// marshal
	var outputData []byte
	if opts.Format == "json" {
		outputData, err = json.MarshalIndent(cfg, "", "  ")
		outputData = append(outputData, '\n')
	} else {
		outputData, err = cfg.Marshal()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal configuration")
	}

	if opts.Output == "" {
		_, _ = os.Stdout.Write(outputData)
		return
	}

	if err := os.WriteFile(opts.Output, outputData, 0644); err != nil {
		log.Fatal().Err(err).Str("file", opts.Output).Msg("Failed to write output")
	}
	log.Info().
		Str("file", opts.Output).
		Str("format", opts.Format).
		Int("maps", len(cfg.Maps)).
		Msg("Configuration migrated")
}
