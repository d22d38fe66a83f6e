package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/luma/picoredis/internal/env"
	"github.com/luma/picoredis/internal/meta"
)

var (
	manDir string
)

var ManPagesCmd = &cobra.Command{
	Use:   "man",
	Short: "Generate man pages for picoredis",
	Long: `Generate a man page for every picoredis command, with the
PICOREDIS_* environment variables listed on the top-level page. Pages go
to the "man" directory under the current directory unless --dir says
otherwise.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(manDir); err != nil && os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "Creating", manDir)
			if err := os.MkdirAll(manDir, 0750); err != nil {
				return err
			}
		}

		if err := WriteManPages(cmd.Root(), manDir); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Wrote picoredis man pages to", manDir)
		return nil
	},
}

// WriteManPages renders the man tree rooted at root into dir. The root page
// gets an ENVIRONMENT section built from env.Config.
func WriteManPages(root *cobra.Command, dir string) error {
	header := &doc.GenManHeader{
		Section: "1",
		Manual:  "picoredis Manual",
		Source:  meta.GetInfo().String(),
	}

	// Keep pages reproducible across runs of the same build
	if date, err := time.Parse("2006/01/02 15:04:05", meta.BuildTimeUTC); err == nil {
		header.Date = &date
	}

	long := root.Long
	root.Long = strings.TrimRight(long, "\n") + "\n\n" + environmentSection()
	defer func() { root.Long = long }()

	root.DisableAutoGenTag = true

	return doc.GenManTree(root, header, filepath.Clean(dir)+string(filepath.Separator))
}

// environmentSection lists every variable env.LoadConfig reads, with its
// default when it has one.
func environmentSection() string {
	var b strings.Builder
	b.WriteString("ENVIRONMENT\n")

	t := reflect.TypeOf(env.Config{})
	for i := 0; i < t.NumField(); i++ {
		tag, ok := t.Field(i).Tag.Lookup("env")
		if !ok {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		b.WriteString("\n  ")
		b.WriteString(name)
		if def, found := strings.CutPrefix(opts, "default="); found {
			fmt.Fprintf(&b, " (default %s)", def)
		}
	}

	b.WriteString("\n\nA .env.local file in the working directory is loaded first.\n")
	return b.String()
}

func init() {
	flags := ManPagesCmd.PersistentFlags()

	flags.StringVar(&manDir, "dir", "man", "the directory to write the man pages.")

	// For bash-completion
	if err := flags.SetAnnotation("dir", cobra.BashCompSubdirsInDir, []string{}); err != nil {
		panic(err)
	}
}
