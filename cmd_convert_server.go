package main

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/lmondada/portmatching-benchmarking/pkg/convert"
)

func (a *app) convertServerCmd() *Command {
	fs := flag.NewFlagSet("convert-server", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "convert-server",
		Short: "Serve circuit conversions on stdin/stdout",
		Long: `Serve circuit conversions on stdin/stdout, one JSON request per line,
with the builtin converter. Point converter.stream at this command to use
it as a stream converter.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
			}
			return convert.NewServer(convert.Builtin{}, o.in, o.out).Run(ctx)
		},
	}
}
