package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/picoredis/protocol"
)

var ScanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "Decode a file of concatenated RESP values",
	Long: `Decode a file of concatenated RESP values, such as an append-only log or a
captured session, and print each value with the offset it starts at. Use - to
read standard input.

Usage
	picoredis scan appendonly.aof
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buf, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		start := 0

		s := protocol.NewScanner(buf)
		for s.Scan() {
			fmt.Fprintf(out, "%d\t%s\n", start, s.Value())
			start = s.Offset()
		}

		return s.Err()
	},
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
