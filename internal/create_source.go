package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/baalimago/charadex/internal/host"
	"github.com/baalimago/charadex/internal/models"
	"github.com/baalimago/charadex/internal/utils"
	"github.com/baalimago/charadex/internal/vendors"
	"github.com/baalimago/charadex/internal/vendors/gemini"
	"github.com/baalimago/charadex/internal/vendors/ollama"
)

// source is a configured generation capability. close releases whatever the
// vendor holds, such as the SDK client.
type source struct {
	models.Source
	vendor string
	model  string
	close  func()
}

// Wait blocks until the capability has been discovered, for sources which
// discover it in the background. It's a no-op otherwise.
func (s source) Wait(ctx context.Context) error {
	if w, ok := s.Source.(interface{ Wait(context.Context) error }); ok {
		return w.Wait(ctx)
	}
	return nil
}

// vendorFromModel infers the vendor from a model name, for when only the model
// is given.
func vendorFromModel(model string) string {
	switch {
	case strings.HasPrefix(model, "ollama:"):
		return VendorOllama
	case strings.HasPrefix(model, "gemini"):
		return VendorGemini
	case model == "mock" || model == "test":
		return VendorMock
	default:
		return ""
	}
}

func createSource(ctx context.Context, confDir string, vendor string, flagSet Configurations) (source, error) {
	switch vendor {
	case VendorGemini:
		g, err := utils.LoadConfigFromFile(confDir, "gemini.json", &gemini.Default)
		if err != nil {
			return source{}, fmt.Errorf("failed to load gemini config: %w", err)
		}
		if flagSet.Model != defaultFlags.Model {
			g.Model = flagSet.Model
		}
		if flagSet.SystemInstruction != defaultFlags.SystemInstruction {
			g.SystemInstruction = flagSet.SystemInstruction
		}
		if err := g.Setup(ctx); err != nil {
			return source{}, fmt.Errorf("failed to setup gemini: %w", err)
		}
		return source{
			Source: host.Static(&g),
			vendor: vendor,
			model:  g.Model,
			close:  func() { g.Close() },
		}, nil
	case VendorOllama:
		o, err := utils.LoadConfigFromFile(confDir, "ollama.json", &ollama.Default)
		if err != nil {
			return source{}, fmt.Errorf("failed to load ollama config: %w", err)
		}
		if flagSet.Model != defaultFlags.Model {
			o.Model = flagSet.Model
		}
		if flagSet.SystemInstruction != defaultFlags.SystemInstruction {
			o.SystemInstruction = flagSet.SystemInstruction
		}
		if err := o.Setup(); err != nil {
			return source{}, fmt.Errorf("failed to setup ollama: %w", err)
		}
		// The host assistant might not be running, discovery happens in the
		// background and prompts are rejected until it has succeeded.
		return source{
			Source: host.Resolve(ctx, VendorOllama, o.Probe),
			vendor: vendor,
			model:  strings.TrimPrefix(o.Model, "ollama:"),
			close:  func() {},
		}, nil
	case VendorMock:
		return source{
			Source: host.Static(&vendors.Mock{}),
			vendor: vendor,
			model:  VendorMock,
			close:  func() {},
		}, nil
	default:
		return source{}, fmt.Errorf("unknown vendor: '%v'", vendor)
	}
}
