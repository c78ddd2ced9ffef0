package internal

import (
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

func TestParseFlagsDefaultValues(t *testing.T) {
	defaults := Configurations{
		Vendor: "gemini",
		Model:  "gemini-1.5-flash-8b",
		Addr:   ":8080",
	}
	result, rest, err := parseFlags(defaults, []string{"q", "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testboil.FailTestIfDiff(t, result, defaults)
	testboil.FailTestIfDiff(t, len(rest), 2)
	testboil.FailTestIfDiff(t, rest[0], "q")
}

func TestParseFlagsShortFlags(t *testing.T) {
	args := []string{
		"-v", "ollama",
		"-m", "llama3",
		"-si", "you are a pokedex",
		"-a", ":9000",
		"-r", "-ns", "-nm",
		"chat",
	}
	result, rest, err := parseFlags(defaultFlags, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Configurations{
		Vendor:            "ollama",
		Model:             "llama3",
		SystemInstruction: "you are a pokedex",
		Addr:              ":9000",
		PrintRaw:          true,
		NoStream:          true,
		NoMemory:          true,
	}
	testboil.FailTestIfDiff(t, result, want)
	testboil.FailTestIfDiff(t, rest[0], "chat")
}

func TestParseFlagsLongFlags(t *testing.T) {
	args := []string{
		"-vendor", "mock",
		"-model", "mock",
		"-system-instruction", "be brief",
		"-addr", "localhost:8081",
		"-raw", "-no-stream", "-no-memory",
		"serve",
	}
	result, _, err := parseFlags(defaultFlags, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Configurations{
		Vendor:            "mock",
		Model:             "mock",
		SystemInstruction: "be brief",
		Addr:              "localhost:8081",
		PrintRaw:          true,
		NoStream:          true,
		NoMemory:          true,
	}
	testboil.FailTestIfDiff(t, result, want)
}

func TestParseFlagsMutuallyExclusive(t *testing.T) {
	tcs := []struct {
		desc string
		args []string
	}{
		{"vendor", []string{"-v", "mock", "-vendor", "ollama"}},
		{"model", []string{"-m", "a", "-model", "b"}},
		{"system instruction", []string{"-si", "a", "-system-instruction", "b"}},
		{"addr", []string{"-a", ":1", "-addr", ":2"}},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			_, _, err := parseFlags(defaultFlags, tc.args)
			if err == nil {
				t.Fatal("expected error for mutually exclusive flags")
			}
		})
	}
}

func TestParseFlagsUnknownFlag(t *testing.T) {
	_, _, err := parseFlags(defaultFlags, []string{"-pokeball"})
	if err == nil {
		t.Fatal("expected error on unknown flag")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	t.Run("flags override file", func(t *testing.T) {
		conf := DefaultConfig
		applyFlagOverrides(&conf, Configurations{
			Vendor:   "ollama",
			Addr:     ":9000",
			PrintRaw: true,
			NoStream: true,
			NoMemory: true,
		}, defaultFlags)
		testboil.FailTestIfDiff(t, conf.Vendor, "ollama")
		testboil.FailTestIfDiff(t, conf.Addr, ":9000")
		testboil.FailTestIfDiff(t, conf.Raw, true)
		testboil.FailTestIfDiff(t, conf.NoStream, true)
		testboil.FailTestIfDiff(t, conf.NoMemory, true)
	})

	t.Run("default flags keep file values", func(t *testing.T) {
		conf := Config{Vendor: "mock", Addr: ":1234", NoMemory: true}
		applyFlagOverrides(&conf, defaultFlags, defaultFlags)
		testboil.FailTestIfDiff(t, conf, Config{Vendor: "mock", Addr: ":1234", NoMemory: true})
	})
}
