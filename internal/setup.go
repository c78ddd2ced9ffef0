package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/baalimago/charadex/internal/controller"
	"github.com/baalimago/charadex/internal/models"
	"github.com/baalimago/charadex/internal/query"
	"github.com/baalimago/charadex/internal/tui"
	"github.com/baalimago/charadex/internal/utils"
	"github.com/baalimago/charadex/internal/web"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

type Mode int

const (
	HELP Mode = iota
	QUERY
	CHAT
	SERVE
	VERSION
)

var ErrNoPrompt = errors.New("found no prompt, set args or pipe in some string")

func getModeFromArgs(cmd string) (Mode, error) {
	switch cmd {
	case "query", "q":
		return QUERY, nil
	case "chat", "c":
		return CHAT, nil
	case "serve", "s":
		return SERVE, nil
	case "help", "h":
		return HELP, nil
	case "version":
		return VERSION, nil
	default:
		return HELP, fmt.Errorf("unknown command: '%s'", cmd)
	}
}

// querierFunc adapts a blocking surface to models.Querier.
type querierFunc func(ctx context.Context) error

func (f querierFunc) Query(ctx context.Context) error {
	return f(ctx)
}

// IO is where the surfaces read and write.
type IO struct {
	Stdin  *os.File
	Stdout io.Writer
}

// Setup parses args and builds the querier of the selected command. The
// returned cleanup releases the generation capability and is never nil.
func Setup(ctx context.Context, usage string, args []string, stdio IO) (models.Querier, func(), error) {
	noop := func() {}
	flagSet, rest, err := parseFlags(defaultFlags, args)
	if err != nil {
		return nil, noop, err
	}
	if len(rest) == 0 {
		fmt.Fprint(stdio.Stdout, usage)
		return nil, noop, utils.ErrUserInitiatedExit
	}
	mode, err := getModeFromArgs(rest[0])
	if err != nil {
		return nil, noop, err
	}
	switch mode {
	case HELP:
		fmt.Fprint(stdio.Stdout, usage)
		return nil, noop, utils.ErrUserInitiatedExit
	case VERSION:
		return nil, noop, printVersion(stdio.Stdout)
	}

	confDir, err := utils.GetConfigDir()
	if err != nil {
		return nil, noop, err
	}
	conf, err := utils.LoadConfigFromFile(confDir, "config.json", &DefaultConfig)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagOverrides(&conf, flagSet, defaultFlags)
	if flagSet.Vendor == defaultFlags.Vendor {
		if v := vendorFromModel(flagSet.Model); v != "" {
			conf.Vendor = v
		}
	}
	if misc.Truthy(os.Getenv("DEBUG")) {
		ancli.PrintOK(fmt.Sprintf("mode: %v, config: %+v\n", mode, conf))
	}

	var prompt string
	if mode == QUERY {
		prompt, err = queryPrompt(rest[1:], stdio.Stdin)
		if err != nil {
			return nil, noop, err
		}
	}

	src, err := createSource(ctx, confDir, conf.Vendor, flagSet)
	if err != nil {
		return nil, noop, err
	}
	ctrlConf := controller.Config{
		Vendor:    src.vendor,
		Streaming: !conf.NoStream,
		Memory:    !conf.NoMemory,
	}

	switch mode {
	case QUERY:
		raw := conf.Raw || !isTerminal(stdio.Stdout)
		return query.New(src, ctrlConf, stdio.Stdout, raw, utils.TermWidth(), prompt), src.close, nil
	case CHAT:
		return querierFunc(func(ctx context.Context) error {
			return tui.Run(ctx, src, ctrlConf)
		}), src.close, nil
	case SERVE:
		store, err := conf.newStore()
		if err != nil {
			src.close()
			return nil, noop, err
		}
		srv, err := web.New(src, ctrlConf, web.Options{
			Model:         src.model,
			RatePerSecond: conf.RatePerSecond,
			Burst:         conf.RateBurst,
			Store:         store,
		})
		if err != nil {
			store.Close()
			src.close()
			return nil, noop, err
		}
		cleanup := func() {
			store.Close()
			src.close()
		}
		return querierFunc(func(ctx context.Context) error {
			return srv.ListenAndServe(ctx, conf.Addr)
		}), cleanup, nil
	default:
		src.close()
		return nil, noop, fmt.Errorf("unknown mode: %v", mode)
	}
}

// queryPrompt joins the args into the prompt. Piped stdin is used when there
// are no args, and appended to them otherwise.
func queryPrompt(args []string, stdin *os.File) (string, error) {
	prompt := strings.Join(args, " ")
	if stdin != nil && utils.HasPipedInput(stdin) {
		piped, err := utils.ReadPipedInput(stdin)
		if err != nil {
			return "", err
		}
		if piped != "" {
			if prompt == "" {
				prompt = piped
			} else {
				prompt += " " + piped
			}
		}
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrNoPrompt
	}
	return prompt, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && utils.IsTerminal(f)
}
