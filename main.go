package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/baalimago/charadex/internal"
	"github.com/baalimago/charadex/internal/controller"
	"github.com/baalimago/charadex/internal/utils"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/go_away_boilerplate/pkg/shutdown"
	"github.com/joho/godotenv"
)

const usage = `charadex - ask a language model about pokemon, or anything else

Prerequisites:
  - Set the GEMINI_API_KEY environment variable to your Gemini API key, or
  - run Ollama locally (OLLAMA_URL overrides http://localhost:11434/v1/chat/completions)
  - (Optional) Put the variables in a .env file in the working directory
  - (Optional) Set CHARADEX_REDIS_URL to keep web conversations in redis
  - (Optional) Set the NO_COLOR environment variable to disable ansi color output

Usage: charadex [flags] <command>

Flags:
  -v, -vendor string               Set the vendor: gemini, ollama or mock. (default is found in config.json)
  -m, -model string                Set the model to use. (default is found in <vendor>.json)
  -si, -system-instruction string  Set the system instruction of the model.
  -r, -raw bool                    Set to true to print raw output, no markdown rendering. (default false)
  -ns, -no-stream bool             Set to true to wait for the complete response. (default false)
  -nm, -no-memory bool             Set to true to not send the conversation with each prompt. (default false)
  -a, -addr string                 Set the address to serve on. (default is found in config.json)

Commands:
  h|help                           Display this help message
  q|query <text>                   Ask the model, stdin is appended to the prompt when piped
  c|chat                           Start an interactive conversation in the terminal
  s|serve                          Serve the web page
  version                          Print the version

Examples:
  - charadex q "Which type is Pikachu weak against?"
  - echo "Gengar" | charadex -r q "Describe this pokemon:"
  - charadex -v ollama -m llama3 chat
  - charadex -a :9000 serve
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ancli.SetupSlog()
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		ancli.PrintWarn(fmt.Sprintf("failed to load .env: %v\n", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	querier, cleanup, err := internal.Setup(ctx, usage, args, internal.IO{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	})
	defer cleanup()
	if err != nil {
		if errors.Is(err, utils.ErrUserInitiatedExit) {
			return 0
		}
		ancli.PrintErr(fmt.Sprintf("failed to setup: %v\n", err))
		return 1
	}
	go func() { shutdown.Monitor(cancel) }()
	err = querier.Query(ctx)
	if err != nil {
		if errors.Is(err, utils.ErrUserInitiatedExit) {
			ancli.Okf("Seems like you wanted out. Byebye!\n")
			return 0
		}
		// The controller has already shown why
		if !errors.Is(err, controller.ErrEmptyPrompt) && !errors.Is(err, controller.ErrUnavailable) {
			ancli.PrintErr(fmt.Sprintf("failed to run: %v\n", err))
		}
		return 1
	}
	if misc.Truthy(os.Getenv("DEBUG")) {
		ancli.PrintOK("things seems to have worked out. Bye bye!\n")
	}
	return 0
}
