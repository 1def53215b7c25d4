// Command rawtxlab walks a Bitcoin Core node through two-hop payment chains
// built from raw transactions and prints the scripts each hop produced.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
)

func main() {
	// Decoded transactions are printed with amounts as numbers, the way
	// the node returns them.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], environ(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, env map[string]string, stdout, stderr io.Writer) int {
	subCmd, conf, err := parseCommandLine(args, stderr)
	if errors.Is(err, errHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 2
	}

	switch subCmd {
	case legacySubCmd, segwitSubCmd:
		err = scenario(ctx, subCmd, conf.(*scenarioConfig), env, stdout, stderr)
	case planSubCmd:
		err = plan(conf.(*planConfig), stdout, stderr)
	case runsSubCmd:
		err = runs(conf.(*runsConfig), stdout)
	case initSubCmd:
		err = initFile(conf.(*initConfig), stdout)
	default:
		err = fmt.Errorf("unknown sub-command '%s'", subCmd)
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}
	return 0
}
