package cmd

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/picoredis/client"
	"github.com/luma/picoredis/protocol"
)

const historyFile = "~/.picoredis_history"

var ReplCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive client",
	Long: `Interactive client

Each line is one command. Arguments are split on spaces, double quotes group
an argument and understand \n, \r, \t, \" and \\ escapes. Type exit to leave.
A connection that failed is reopened for the next command.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, log, err := setup(cmd)
		if err != nil {
			return err
		}

		history, err := homedir.Expand(historyFile)
		if err != nil {
			return err
		}

		input, err := readline.NewEx(&readline.Config{
			Prompt: net.JoinHostPort(conf.Host, strconv.Itoa(conf.Port)) + "> ",
			AutoComplete: readline.NewPrefixCompleter(
				readline.PcItem("PING"),
				readline.PcItem("ECHO"),
				readline.PcItem("AUTH"),
				readline.PcItem("SELECT"),
				readline.PcItem("GET"),
				readline.PcItem("SET"),
				readline.PcItem("DEL"),
				readline.PcItem("EXISTS"),
				readline.PcItem("INCR"),
				readline.PcItem("KEYS"),
				readline.PcItem("QUIT"),
			),
			HistoryFile: history,
		})
		if err != nil {
			return err
		}
		defer input.Close()

		var c *client.Client
		defer func() {
			if c == nil {
				return
			}
			closeLogged(c, log, "Closing connection on exit")
		}()

		for {
			line, err := input.Readline()
			if err != nil {
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}

			words, err := splitArgs(line)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "(error) %v\n", err)
				continue
			}

			if len(words) == 0 {
				continue
			}

			if strings.EqualFold(words[0], "exit") {
				return nil
			}

			// Reopen after a failure, the old connection can't be reused
			if c != nil && c.State() != client.Connected {
				closeLogged(c, log, "Closing failed connection")
				c = nil
			}

			if c == nil {
				if c, err = connect(cmd.Context(), conf, log); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "(error) %v\n", err)
					continue
				}
			}

			command, err := c.Method(words[0])
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "(error) %v\n", err)
				continue
			}

			reply, err := command(cmd.Context(), protocol.Strings(words[1:]...)...)
			if err != nil {
				if printServerError(cmd, err) != errReported {
					fmt.Fprintf(cmd.ErrOrStderr(), "(error) %v\n", err)
				}
				continue
			}

			fmt.Fprintln(cmd.OutOrStdout(), reply)

			if strings.EqualFold(words[0], string(protocol.QUIT)) {
				closeLogged(c, log, "Closing connection after QUIT")
				c = nil
			}
		}
	},
}

// closeLogged closes c and logs a failure at debug level. The REPL has
// already printed the reply, so a close error is not worth surfacing.
func closeLogged(c io.Closer, log *zap.Logger, msg string) {
	if err := c.Close(); err != nil {
		log.Debug(msg, zap.Error(err))
	}
}

var errUnbalancedQuotes = errors.New("unbalanced quotes")

// splitArgs splits a line into arguments like redis-cli: on unquoted spaces,
// with double quoted arguments that may contain escapes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inWord  bool
		quoted  bool
	)

	for i := 0; i < len(line); i++ {
		ch := line[i]

		switch {
		case quoted && ch == '\\' && i+1 < len(line):
			i++
			switch line[i] {
			case 'n':
				current.WriteByte('\n')
			case 'r':
				current.WriteByte('\r')
			case 't':
				current.WriteByte('\t')
			default:
				current.WriteByte(line[i])
			}

		case quoted && ch == '"':
			quoted = false
			if i+1 < len(line) && line[i+1] != ' ' && line[i+1] != '\t' {
				return nil, errUnbalancedQuotes
			}

		case quoted:
			current.WriteByte(ch)

		case ch == '"' && !inWord:
			inWord, quoted = true, true

		case ch == ' ' || ch == '\t':
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}

		default:
			inWord = true
			current.WriteByte(ch)
		}
	}

	if quoted {
		return nil, errUnbalancedQuotes
	}

	if inWord {
		args = append(args, current.String())
	}

	return args, nil
}
