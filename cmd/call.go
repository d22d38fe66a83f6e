package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/luma/picoredis/client"
	"github.com/luma/picoredis/protocol"
)

var CallCmd = &cobra.Command{
	Use:   "call <command> [args...]",
	Short: "Run one command and print the reply",
	Long: `Run one command and print the reply the way redis-cli does

Usage
	picoredis call SET greeting hello
	picoredis call get greeting
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		conf, log, err := setup(cmd)
		if err != nil {
			return err
		}

		c, err := connect(cmd.Context(), conf, log)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, c.Close())
		}()

		command, err := c.Method(args[0])
		if err != nil {
			return err
		}

		reply, err := command(cmd.Context(), protocol.Strings(args[1:]...)...)
		if err != nil {
			return printServerError(cmd, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	},
}

// printServerError prints an error reply the way it would be shown as a
// reply and returns errReported. Other errors are returned as they are.
func printServerError(cmd *cobra.Command, err error) error {
	var serverErr *client.ServerError
	if !errors.As(err, &serverErr) {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), protocol.MakeError(serverErr.Kind, serverErr.Message))
	return errReported
}
