package main

import (
	"errors"
	"io"

	"github.com/jessevdk/go-flags"
)

const (
	legacySubCmd = "legacy"
	segwitSubCmd = "segwit"
	planSubCmd   = "plan"
	runsSubCmd   = "runs"
	initSubCmd   = "init"
)

// CommonFlags are accepted by every subcommand that reads the config file.
type CommonFlags struct {
	ConfigFile string `long:"config" short:"C" description:"Path to configuration file (default <datadir>/config)"`
	DataDir    string `long:"datadir" short:"b" description:"Directory to store data"`
	Network    string `long:"network" short:"n" description:"Node network: regtest, testnet, signet or mainnet"`
	RPCURL     string `long:"rpcurl" short:"s" description:"Node JSON-RPC URL"`
	RPCUser    string `long:"rpcuser" short:"u" description:"RPC username"`
	RPCPass    string `long:"rpcpass" short:"P" default-mask:"-" description:"RPC password"`
	Wallet     string `long:"wallet" short:"w" description:"Wallet to load, created if missing"`
	Journal    string `long:"journal" short:"j" description:"bbolt file runs are recorded in"`
	LogLevel   string `long:"loglevel" short:"d" description:"Logging level: debug, info, warn or error"`
	LogFormat  string `long:"logformat" description:"Log encoding: console or json"`
}

type scenarioConfig struct {
	CommonFlags
	Fee           string `long:"fee" description:"Flat fee of every hop in BTC"`
	FundAmount    string `long:"fund" description:"Amount sent to the first address in BTC"`
	FirstPayment  string `long:"first" description:"Amount of the first hop in BTC"`
	SecondPayment string `long:"second" description:"Amount of the second hop in BTC"`
	Summary       bool   `long:"summary" description:"Print a summary table after the run"`
}

type planConfig struct {
	Input  string `long:"input" short:"i" description:"Amount of the spent output in BTC" required:"true"`
	PayTo  string `long:"pay-to" short:"t" description:"Payment address" required:"true"`
	Amount string `long:"amount" short:"a" description:"Payment amount in BTC" required:"true"`
	Change string `long:"change" short:"c" description:"Change address" required:"true"`
	Fee    string `long:"fee" short:"f" description:"Flat fee in BTC" default:"0.0001"`
}

type runsConfig struct {
	CommonFlags
	RunID string `long:"run" short:"r" description:"Show the hops of this run instead of listing runs"`
}

type initConfig struct {
	CommonFlags
	Force bool `long:"force" description:"Overwrite an existing config file"`
}

// errHelp is returned by parseCommandLine after help was printed.
var errHelp = errors.New("help requested")

// parseCommandLine parses args and returns the active subcommand with its
// populated config. Usage errors are written to stderr.
func parseCommandLine(args []string, stderr io.Writer) (subCommand string, config interface{}, err error) {
	parser := flags.NewParser(nil, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "rawtxlab"

	legacyConf := &scenarioConfig{}
	segwitConf := &scenarioConfig{}
	planConf := &planConfig{}
	runsConf := &runsConfig{}
	initConf := &initConfig{}
	commands := []struct {
		name, short, long string
		data              interface{}
	}{
		{legacySubCmd, "Run the legacy P2PKH payment chain",
			"Funds a legacy address A, pays B from A and C from B, and prints the locking and unlocking scripts", legacyConf},
		{segwitSubCmd, "Run the P2SH-SegWit payment chain",
			"Same chain over P2SH-wrapped SegWit addresses, mining a mature balance first when needed", segwitConf},
		{planSubCmd, "Print the outputs planned for a spend",
			"Computes payment and change outputs offline, as createrawtransaction would receive them", planConf},
		{runsSubCmd, "List journalled runs",
			"Lists the runs recorded in the journal, or the hops of one run", runsConf},
		{initSubCmd, "Write a config file",
			"Writes the settings given on the command line, layered over any existing file, to the config file", initConf},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			return "", nil, err
		}
	}

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			_, _ = io.WriteString(stderr, err.Error()+"\n")
			return "", nil, errHelp
		}
		return "", nil, err
	}

	switch name := parser.Command.Active.Name; name {
	case legacySubCmd:
		return name, legacyConf, nil
	case segwitSubCmd:
		return name, segwitConf, nil
	case planSubCmd:
		return name, planConf, nil
	case initSubCmd:
		return name, initConf, nil
	default:
		return name, runsConf, nil
	}
}
