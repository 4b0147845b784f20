// Package cli implements the teamvault command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const usage = `Usage: teamvault <command> [flags]

Commands:
  sync <appId>   download an application's variables into a .env file
  config         show or update the saved token and server URL

Run "teamvault <command> --help" for command flags.
`

// App runs CLI commands. Fields are replaceable in tests.
type App struct {
	Stdout     io.Writer
	Stderr     io.Writer
	ConfigPath func() (string, error)
	NewClient  func(baseURL, token string) *Client
}

// NewApp returns an App writing to the process streams.
func NewApp() *App {
	return &App{
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		ConfigPath: ConfigPath,
		NewClient: func(baseURL, token string) *Client {
			return NewClient(baseURL, token, nil)
		},
	}
}

// Run executes args and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.Stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "sync":
		err = a.sync(ctx, args[1:])
	case "config":
		err = a.config(args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(a.Stdout, usage)
		return 0
	default:
		fmt.Fprintf(a.Stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err == nil {
		return 0
	}
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	fmt.Fprintf(a.Stderr, "error: %v\n", err)
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		return 2
	}
	return 1
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func (a *App) sync(ctx context.Context, args []string) error {
	var serverURL, token, output string

	flagSet := pflag.NewFlagSet("sync", pflag.ContinueOnError)
	flagSet.SetOutput(a.Stderr)
	flagSet.StringVar(&serverURL, "url", "", "server URL (default: DEFAULT_URL from the config file)")
	flagSet.StringVar(&token, "token", "", "API token (default: API_TOKEN from the config file)")
	flagSet.StringVarP(&output, "output", "o", ".env", "file to write")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if flagSet.NArg() != 1 {
		return &usageError{msg: "sync requires exactly one application id"}
	}
	appID := flagSet.Arg(0)

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if serverURL == "" {
		serverURL = cfg.DefaultURL
	}
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	if token == "" {
		token = cfg.APIToken
	}
	if token == "" {
		return &usageError{msg: "no API token: pass --token or run \"teamvault config --token <token>\""}
	}

	body, err := a.NewClient(serverURL, token).FetchVault(ctx, appID)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, []byte(body), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Fprintf(a.Stdout, "wrote %s\n", output)
	return nil
}

func (a *App) config(args []string) error {
	var serverURL, token string

	flagSet := pflag.NewFlagSet("config", pflag.ContinueOnError)
	flagSet.SetOutput(a.Stderr)
	flagSet.StringVar(&serverURL, "url", "", "save the default server URL")
	flagSet.StringVar(&token, "token", "", "save the API token")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	path, err := a.ConfigPath()
	if err != nil {
		return err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}

	if !flagSet.Changed("url") && !flagSet.Changed("token") {
		fmt.Fprintf(a.Stdout, "config file: %s\n", path)
		fmt.Fprintf(a.Stdout, "%s=%s\n", keyDefaultURL, cfg.DefaultURL)
		fmt.Fprintf(a.Stdout, "%s=%s\n", keyAPIToken, maskToken(cfg.APIToken))
		return nil
	}

	if flagSet.Changed("url") {
		cfg.DefaultURL = serverURL
	}
	if flagSet.Changed("token") {
		cfg.APIToken = token
	}
	if err := SaveConfig(path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(a.Stdout, "saved %s\n", path)
	return nil
}

func (a *App) loadConfig() (*Config, error) {
	path, err := a.ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfig(path)
}

// maskToken keeps only the last four characters of a token.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
