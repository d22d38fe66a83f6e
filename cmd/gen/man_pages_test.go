package gen

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("gen / man pages", func() {
	It("lists every configuration variable with its default", func() {
		section := environmentSection()

		Expect(section).To(HavePrefix("ENVIRONMENT\n"))
		Expect(section).To(ContainSubstring("PICOREDIS_HOST (default 127.0.0.1)"))
		Expect(section).To(ContainSubstring("PICOREDIS_PORT (default 6379)"))
		Expect(section).To(ContainSubstring("PICOREDIS_TIMEOUT (default 3s)"))
		Expect(section).To(ContainSubstring("PICOREDIS_LOG_LEVEL (default info)"))
		Expect(section).To(ContainSubstring("\n  PICOREDIS_PASSWORD\n"))
		Expect(section).To(ContainSubstring(".env.local"))
	})

	It("writes one page per command and restores the root description", func() {
		root := &cobra.Command{Use: "picoredis", Long: "A small RESP client"}
		root.AddCommand(&cobra.Command{Use: "call", Run: func(*cobra.Command, []string) {}})

		dir, err := os.MkdirTemp("", "picoredis-man")
		Expect(err).To(Succeed())
		defer os.RemoveAll(dir)

		Expect(WriteManPages(root, dir)).To(Succeed())

		page, err := os.ReadFile(filepath.Join(dir, "picoredis.1"))
		Expect(err).To(Succeed())
		Expect(string(page)).To(ContainSubstring("PICOREDIS_PORT"))
		Expect(filepath.Join(dir, "picoredis-call.1")).To(BeAnExistingFile())

		Expect(root.Long).To(Equal("A small RESP client"))
	})
})
