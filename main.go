// Command portbench builds quantum circuit pattern corpora and benchmarks
// pattern-matching engines on them.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	flag "github.com/spf13/pflag"

	"github.com/lmondada/portmatching-benchmarking/pkg/convert"
	"github.com/lmondada/portmatching-benchmarking/pkg/engine"
	"github.com/lmondada/portmatching-benchmarking/pkg/engine/quartz"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := Run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	os.Exit(code)
}

// app is the state shared by all commands.
type app struct {
	cfg    Config
	logger *slog.Logger

	// nativeAvailable reports whether the quartz bindings are linked in.
	nativeAvailable bool
}

func (a *app) commands() []*Command {
	return []*Command{
		a.generateCmd(),
		a.runCmd(),
		a.plotCmd(),
		a.pushCmd(),
		a.pullCmd(),
		a.convertServerCmd(),
	}
}

// Run is the main entry point. Returns exit code.
func Run(ctx context.Context, in io.Reader, out, errOut io.Writer, args []string) int {
	o := &IO{in: in, out: out, errOut: errOut}

	global := flag.NewFlagSet("portbench", flag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(io.Discard)
	configPath := global.StringP("config", "c", "", "config file (default "+ConfigFileName+" if present)")
	verbose := global.BoolP("verbose", "v", false, "log debug messages")
	help := global.BoolP("help", "h", false, "show help")

	if err := global.Parse(args); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	a := &app{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level})),

		nativeAvailable: quartz.Available,
	}
	cmds := a.commands()

	rest := global.Args()
	if *help || len(rest) == 0 {
		printUsage(o, cmds)
		return 0
	}

	for _, cmd := range cmds {
		if cmd.Name() == rest[0] {
			return cmd.Run(ctx, o, rest[1:])
		}
	}

	o.ErrPrintln("error: unknown command:", rest[0])
	printUsage(o, cmds)
	return 1
}

func printUsage(o *IO, cmds []*Command) {
	o.Println("Usage: portbench [-c config] [-v] <command> [flags]")
	o.Println()
	o.Println("Commands:")
	for _, cmd := range cmds {
		o.Println(cmd.HelpLine())
	}
}

// newConverter builds the configured converter. The returned close
// function stops a stream converter.
func (a *app) newConverter(ctx context.Context) (convert.Converter, func() error, error) {
	noop := func() error { return nil }
	c := a.cfg.Converter

	switch c.Mode {
	case "builtin":
		return convert.Builtin{}, noop, nil
	case "stream":
		s, err := convert.StartStream(ctx, c.Stream)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		e := convert.DefaultExec()
		if len(c.QASMToJSON) > 0 {
			e.QASMToJSONCmd = c.QASMToJSON
		}
		if len(c.JSONToQASM) > 0 {
			e.JSONToQASMCmd = c.JSONToQASM
		}
		return e, noop, nil
	}
}

// engines returns the benchmarked engines in run order.
func (a *app) engines() []engine.Engine {
	return []engine.Engine{quartz.Engine(), engine.Library{}}
}
