package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/davecgh/go-spew/spew"
	"github.com/joho/godotenv"

	"github.com/goliatone/go-fmtemplate"
	"github.com/goliatone/go-fmtemplate/internal/config"
	"github.com/goliatone/go-fmtemplate/pkg/coordinator"
	"github.com/goliatone/go-fmtemplate/pkg/logging"
)

// confirmFunc asks the user a yes/no question.
type confirmFunc func(message string) (bool, error)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

func main() {
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, surveyConfirm); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "fmtemplate: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, confirm confirmFunc) error {
	cfg, err := config.Load(args, stderr)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	mode, err := cfg.RenderMode()
	if err != nil {
		return err
	}
	format, err := cfg.OutputFormat()
	if err != nil {
		return err
	}

	logCfg := cfg.Logging()
	logCfg.Output = stderr
	logger := logging.NewZap(logCfg)
	defer func() {
		_ = logger.Sync()
	}()

	files := fmtemplate.NewFileSystem("")
	docs, err := fmtemplate.ReadDocuments(ctx, files, cfg.Inputs)
	if err != nil {
		logger.Error("read documents failed", err)
		return err
	}

	gen := coordinator.New(
		coordinator.WithFileSystem(files),
		coordinator.WithLogger(logger),
		coordinator.WithMode(mode),
	)
	result, err := gen.Render(ctx, coordinator.Request{
		SchemaPath: cfg.SchemaPath,
		Documents:  docs,
		Globals:    cfg.Vars,
	})
	if err != nil {
		logger.Error("render failed", err, logging.String("schema", cfg.SchemaPath))
		return err
	}

	if cfg.Debug {
		fmt.Fprintf(stderr, "directives:\n%s", dumper.Sdump(result.Directives))
		if result.Aggregated {
			fmt.Fprintf(stderr, "state: %s\ndetection:\n%s", result.Outcome.State, dumper.Sdump(result.Outcome.Detection))
			if expansion := result.Outcome.Expansion; expansion.ExpandedItemCount > 0 {
				fmt.Fprintf(stderr, "items: %d skipped: %v preserved: %v\n",
					expansion.ExpandedItemCount, expansion.SkippedItems, expansion.PreservedVariables)
			}
		}
	}

	payload, err := result.Marshal(format)
	if err != nil {
		return err
	}

	if cfg.OutputPath == "" {
		_, err := stdout.Write(payload)
		return err
	}

	if _, statErr := os.Stat(cfg.OutputPath); statErr == nil && !cfg.AssumeYes {
		ok, err := confirm(fmt.Sprintf("Overwrite %s?", cfg.OutputPath))
		if err != nil {
			return err
		}
		if !ok {
			logger.Warn("output left unchanged", logging.String("path", cfg.OutputPath))
			return nil
		}
	}

	if err := os.WriteFile(cfg.OutputPath, payload, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("output written",
		logging.String("path", cfg.OutputPath),
		logging.Int("documents", result.Rendered),
	)
	return nil
}

func surveyConfirm(message string) (bool, error) {
	var out bool
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return false, nil
		}
		return false, err
	}
	return out, nil
}
