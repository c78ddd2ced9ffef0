package internal

import (
	"flag"
	"fmt"

	"github.com/baalimago/charadex/internal/utils"
)

type Configurations struct {
	Vendor            string
	Model             string
	SystemInstruction string
	Addr              string
	PrintRaw          bool
	NoStream          bool
	NoMemory          bool
}

var defaultFlags = Configurations{}

// parseFlags parses CLI flags into Configurations. Short and long versions of
// the same flag are mutually exclusive.
func parseFlags(defaults Configurations, args []string) (Configurations, []string, error) {
	fs := flag.NewFlagSet("charadex", flag.ContinueOnError)
	fs.String("A-helpful-nonexisting-flag", "there is no default", "This isn't a flag. It's only here to tell you that 'charadex h/help' gives better overview of usage than 'charadex -h'.")

	vShort := fs.String("v", defaults.Vendor, "Set the vendor to use: gemini, ollama or mock. Mutually exclusive with vendor flag.")
	vLong := fs.String("vendor", defaults.Vendor, "Set the vendor to use: gemini, ollama or mock. Mutually exclusive with v flag.")

	mShort := fs.String("m", defaults.Model, "Set the model to use. Mutually exclusive with model flag.")
	mLong := fs.String("model", defaults.Model, "Set the model to use. Mutually exclusive with m flag.")

	siShort := fs.String("si", defaults.SystemInstruction, "Set the system instruction. Mutually exclusive with system-instruction flag.")
	siLong := fs.String("system-instruction", defaults.SystemInstruction, "Set the system instruction. Mutually exclusive with si flag.")

	aShort := fs.String("a", defaults.Addr, "Set the address to serve the web page on. Mutually exclusive with addr flag.")
	aLong := fs.String("addr", defaults.Addr, "Set the address to serve the web page on. Mutually exclusive with a flag.")

	printRawShort := fs.Bool("r", defaults.PrintRaw, "Set to true to print raw output (no markdown rendering).")
	printRawLong := fs.Bool("raw", defaults.PrintRaw, "Set to true to print raw output (no markdown rendering).")

	noStreamShort := fs.Bool("ns", defaults.NoStream, "Set to true to wait for the complete response instead of streaming it.")
	noStreamLong := fs.Bool("no-stream", defaults.NoStream, "Set to true to wait for the complete response instead of streaming it.")

	noMemoryShort := fs.Bool("nm", defaults.NoMemory, "Set to true to not send the conversation with each prompt.")
	noMemoryLong := fs.Bool("no-memory", defaults.NoMemory, "Set to true to not send the conversation with each prompt.")

	err := fs.Parse(args)
	if err != nil {
		return Configurations{}, []string{}, fmt.Errorf("failed to parse args: %w", err)
	}

	vendor, err := utils.ReturnNonDefault(*vShort, *vLong, defaults.Vendor)
	if err != nil {
		return Configurations{}, nil, flagError(err, "v", "vendor")
	}
	model, err := utils.ReturnNonDefault(*mShort, *mLong, defaults.Model)
	if err != nil {
		return Configurations{}, nil, flagError(err, "m", "model")
	}
	systemInstruction, err := utils.ReturnNonDefault(*siShort, *siLong, defaults.SystemInstruction)
	if err != nil {
		return Configurations{}, nil, flagError(err, "si", "system-instruction")
	}
	addr, err := utils.ReturnNonDefault(*aShort, *aLong, defaults.Addr)
	if err != nil {
		return Configurations{}, nil, flagError(err, "a", "addr")
	}

	return Configurations{
		Vendor:            vendor,
		Model:             model,
		SystemInstruction: systemInstruction,
		Addr:              addr,
		PrintRaw:          *printRawShort || *printRawLong,
		NoStream:          *noStreamShort || *noStreamLong,
		NoMemory:          *noMemoryShort || *noMemoryLong,
	}, fs.Args(), nil
}

func flagError(err error, shortFlag, longFlag string) error {
	return fmt.Errorf("flags: '%v' and '%v': %w", shortFlag, longFlag, err)
}

// applyFlagOverrides sets the values of conf which have been changed from the
// defaults by flags. The precedence is flags > file > default.
func applyFlagOverrides(conf *Config, flagSet, defaults Configurations) {
	if flagSet.Vendor != defaults.Vendor {
		conf.Vendor = flagSet.Vendor
	}
	if flagSet.Addr != defaults.Addr {
		conf.Addr = flagSet.Addr
	}
	if flagSet.PrintRaw != defaults.PrintRaw {
		conf.Raw = flagSet.PrintRaw
	}
	if flagSet.NoStream != defaults.NoStream {
		conf.NoStream = flagSet.NoStream
	}
	if flagSet.NoMemory != defaults.NoMemory {
		conf.NoMemory = flagSet.NoMemory
	}
}
