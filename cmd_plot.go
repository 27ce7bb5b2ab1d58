package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	flag "github.com/spf13/pflag"
)

func (a *app) plotCmd() *Command {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	resultsDir := fs.StringP("results-folder", "r", a.cfg.ResultsDir, "folder holding the result CSV files")
	outFile := fs.StringP("output-file", "o", a.cfg.Plot.OutputFile, "plot file to write")

	return &Command{
		Flags: fs,
		Usage: "plot [flags]",
		Short: "Plot benchmark results",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
			}
			out, err := a.plot(ctx, *resultsDir, *outFile)
			if err != nil {
				return err
			}
			o.Printf("%s", out)
			return nil
		},
	}
}

// plot runs the configured plot command with -r DIR -o FILE and returns its
// stdout.
func (a *app) plot(ctx context.Context, resultsDir, outFile string) (string, error) {
	argv := a.cfg.Plot.Command
	if len(argv) == 0 {
		return "", errors.New("no plot command configured")
	}

	args := append(append([]string{}, argv[1:]...), "-r", resultsDir, "-o", outFile)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	a.logger.Debug("running plot command", "command", strings.Join(cmd.Args, " "))
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %w: %s", argv[0], err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}
