package command

import (
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tsqr-go/internal/cli/config"
	"github.com/yndnr/tsqr-go/internal/cli/output"
	"github.com/yndnr/tsqr-go/internal/infra/buildinfo"
)

const configKey = "cliConfig"

// now is the clock used for minting and offline verification.
var now = time.Now

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "tsqr-cli",
		Usage:   "Mint, decode and verify tenant-signed QR receipt tokens",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			MintCommand(),
			VerifyCommand(),
			DecodeCommand(),
			SubmitCommand(),
		},
		// Secrets and field values may contain commas.
		DisableSliceFlagSeparator: true,
		Metadata:                  make(map[string]any),
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			c.App.Metadata[configKey] = cfg
			return nil
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file",
			EnvVars: []string{"TSQR_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "tsqr-server base URL (default from config file)",
			EnvVars: []string{"TSQR_CLI_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml (default from config file)",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable verbose output",
		},
	}
}

// GlobalFlags defines flags available to all commands, with config file
// defaults applied.
type GlobalFlags struct {
	Server  string
	Output  string
	Wide    bool
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	cfg := GetConfig(c)
	flags := &GlobalFlags{
		Server:  c.String("server"),
		Output:  c.String("output"),
		Wide:    c.Bool("wide"),
		Verbose: c.Bool("verbose"),
	}
	if flags.Server == "" {
		flags.Server = cfg.Server
	}
	if flags.Output == "" {
		flags.Output = cfg.Output
	}
	return flags
}

// GetConfig retrieves the CLI config loaded by the Before hook, or the
// defaults when none was loaded.
func GetConfig(c *cli.Context) *config.CLIConfig {
	if c != nil && c.App != nil {
		if cfg, ok := c.App.Metadata[configKey].(*config.CLIConfig); ok {
			return cfg
		}
	}
	return config.Default()
}

// printOutput writes data in the selected output format.
func printOutput(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return output.NewFormatter(format, flags.Wide).Format(c.App.Writer, data)
}

// PrintError prints an error message to w.
func PrintError(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "error: "+format+"\n", args...)
}

// requireArg returns the first positional argument or a usage error.
func requireArg(c *cli.Context, name string) (string, error) {
	arg := c.Args().First()
	if arg == "" {
		return "", cli.Exit(fmt.Sprintf("%s requires %s argument", c.Command.Name, name), 1)
	}
	return arg, nil
}
