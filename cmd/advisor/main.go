package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"game-stock-advisor/console/internal/advisor"
	"game-stock-advisor/console/internal/config"
	"game-stock-advisor/console/internal/render"
)

const usage = `usage: advisor [-backend URL] <command> [flags]

commands:
  train                        train the backend model
  predict -year Y -max-games N print the top game recommendations for Y
  years                        list the years the model can predict for
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	logrus.SetOutput(stderr)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	global := flag.NewFlagSet("advisor", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	backendURL := global.String("backend", cfg.BackendURL, "Model backend base URL (env BACKEND_URL)")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	client, err := advisor.NewClient(advisor.Config{BaseURL: *backendURL, Timeout: cfg.BackendTimeout})
	if err != nil {
		fmt.Fprintf(stderr, "backend: %v\n", err)
		return 1
	}

	command, rest := global.Arg(0), global.Args()[1:]
	switch command {
	case "train":
		return runTrain(ctx, client, stdout, stderr)
	case "predict":
		return runPredict(ctx, client, rest, stdout, stderr)
	case "years":
		return runYears(ctx, client, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		global.Usage()
		return 2
	}
}

func runTrain(ctx context.Context, d advisor.Dispatcher, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, "Training model, please wait...")
	resp, err := d.SubmitTraining(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, resp.Message)
	return 0
}

func runPredict(ctx context.Context, d advisor.Dispatcher, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	year := fs.String("year", "", "Year to predict for")
	maxGames := fs.String("max-games", "6", "Number of games to stock")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	req, err := advisor.Collect(*year, *maxGames)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	resp, err := d.SubmitPrediction(ctx, req)
	if err != nil {
		var appErr *advisor.ApplicationError
		if errors.As(err, &appErr) {
			fmt.Fprintln(stderr, appErr.Message)
		} else {
			fmt.Fprintf(stderr, "An error occurred while fetching predictions: %v\n", err)
		}
		return 1
	}
	if err := render.RenderText(stdout, resp); err != nil {
		fmt.Fprintf(stderr, "write results: %v\n", err)
		return 1
	}
	return 0
}

func runYears(ctx context.Context, d advisor.Dispatcher, stdout, stderr io.Writer) int {
	years, err := d.FetchYears(ctx)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	parts := make([]string, 0, len(years))
	for _, y := range years {
		parts = append(parts, fmt.Sprint(y))
	}
	fmt.Fprintln(stdout, strings.Join(parts, " "))
	return 0
}
