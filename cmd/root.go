package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/picoredis/client"
	"github.com/luma/picoredis/cmd/gen"
	"github.com/luma/picoredis/internal/env"
)

var (
	// Server host, to connect to or to listen on
	host string

	// Server port, to connect to or to listen on
	port int

	// Reply budget for each command
	timeout time.Duration

	password string

	logLevel string
)

var RootCmd = &cobra.Command{
	Use:   "picoredis",
	Short: "A small RESP client and test server",
	Long: `A small RESP client and test server

Flags override the PICOREDIS_* environment variables, which can also be set
in a .env.local file in the working directory.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errReported is returned by commands that already told the user what went
// wrong and only need a non-zero exit.
var errReported = errors.New("reported")

func init() {
	flags := RootCmd.PersistentFlags()

	flags.StringVarP(&host, "host", "a", "", "Server host (PICOREDIS_HOST)")
	flags.IntVarP(&port, "port", "p", 0, "Server port (PICOREDIS_PORT)")
	flags.DurationVarP(&timeout, "timeout", "t", 0, "Reply timeout per command (PICOREDIS_TIMEOUT)")
	flags.StringVar(&password, "password", "", "Password to AUTH with, or to require when serving (PICOREDIS_PASSWORD)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (PICOREDIS_LOG_LEVEL)")

	RootCmd.AddCommand(CallCmd)
	RootCmd.AddCommand(ReplCmd)
	RootCmd.AddCommand(ScanCmd)
	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(gen.RootCmd)
}

func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// loadConfig reads the environment, then applies the flags set on cmd.
func loadConfig(cmd *cobra.Command) (*env.Config, error) {
	conf, err := env.LoadConfig(cmd.Context())
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("host") {
		conf.Host = host
	}
	if flags.Changed("port") {
		conf.Port = port
	}
	if flags.Changed("timeout") {
		conf.Timeout = timeout
	}
	if flags.Changed("password") {
		conf.Password = password
	}
	if flags.Changed("log-level") {
		conf.LogLevel = logLevel
	}

	return conf, nil
}

// setup loads the config and builds the logger every command starts with.
func setup(cmd *cobra.Command) (*env.Config, *zap.Logger, error) {
	conf, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	log, err := env.MakeLogger(conf.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	return conf, log, nil
}

// connect opens a client to the configured server and authenticates if a
// password is configured.
func connect(ctx context.Context, conf *env.Config, log *zap.Logger) (*client.Client, error) {
	c := client.New(
		client.WithTimeout(conf.Timeout),
		client.WithLogger(log),
	)

	if err := c.Connect(ctx, conf.Host, conf.Port); err != nil {
		return nil, err
	}

	if conf.Password != "" {
		if err := c.Auth(ctx, conf.Password); err != nil {
			return nil, multierr.Append(err, c.Close())
		}
	}

	return c, nil
}
