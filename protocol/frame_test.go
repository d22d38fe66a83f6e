package protocol_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/picoredis/protocol"
)

var _ = Describe("Frames", func() {
	Describe("ReadFrame()", func() {
		It("reads exactly one value and leaves the rest", func() {
			r := protocol.NewReader(strings.NewReader("*2\r\n$3\r\nfoo\r\n:7\r\n+next\r\n"))

			frame, err := protocol.ReadFrame(r)
			Expect(err).To(Succeed())
			Expect(string(frame)).To(Equal("*2\r\n$3\r\nfoo\r\n:7\r\n"))

			frame, err = protocol.ReadFrame(r)
			Expect(err).To(Succeed())
			Expect(string(frame)).To(Equal("+next\r\n"))

			_, err = protocol.ReadFrame(r)
			Expect(err).To(MatchError(io.EOF))
		})

		It("assembles frames delivered one byte at a time", func() {
			input := "*3\r\n$14\r\nhello\r\ngoodbye\r\n$-1\r\n*0\r\n"
			r := protocol.NewReader(iotest.OneByteReader(strings.NewReader(input)))

			v, err := r.ReadValue()
			Expect(err).To(Succeed())
			Expect(v.Equal(protocol.MakeArray(
				protocol.MakeBulkString([]byte("hello\r\ngoodbye")),
				protocol.MakeNullBulkString(),
				protocol.MakeArray(),
			))).To(BeTrue())
		})

		It("does not end a line on a bare newline", func() {
			r := protocol.NewReader(strings.NewReader("+a\nb\r\n"))

			v, err := r.ReadValue()
			Expect(err).To(Succeed())
			Expect(v.Text()).To(Equal("a\nb"))
		})

		It("reports running out mid-frame as an unexpected EOF", func() {
			for _, input := range []string{"*2\r\n:1\r\n", "$5\r\nab", "+partial"} {
				_, err := protocol.ReadFrame(protocol.NewReader(strings.NewReader(input)))
				Expect(err).To(MatchError(io.ErrUnexpectedEOF), "input %q", input)
			}
		})

		It("reports header defects relative to the frame", func() {
			_, err := protocol.ReadFrame(protocol.NewReader(strings.NewReader("*1\r\n$x\r\n")))

			var perr *protocol.ProtocolError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Offset).To(Equal(5))

			_, err = protocol.ReadFrame(protocol.NewReader(strings.NewReader("\r\n")))
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Offset).To(Equal(0))
		})

		It("lets Decode validate the payload terminator", func() {
			_, err := protocol.ReadValue(protocol.NewReader(strings.NewReader("$3\r\nfooXY")))
			Expect(errors.Is(err, protocol.ErrProtocol)).To(BeTrue())
		})

		It("passes wrapped EOFs from the source through mid-frame", func() {
			hangup := fmt.Errorf("read: %w", io.EOF)

			for _, input := range []string{"$5\r\nab", "*2\r\n:1\r\n", "+partial"} {
				src := io.MultiReader(strings.NewReader(input), iotest.ErrReader(hangup))

				_, err := protocol.ReadFrame(protocol.NewReader(src))
				Expect(err).To(Equal(hangup), "input %q", input)
			}
		})

		It("passes source errors through", func() {
			boom := errors.New("boom")
			_, err := protocol.ReadFrame(protocol.NewReader(iotest.ErrReader(boom)))
			Expect(err).To(MatchError(boom))
		})
	})

	Describe("Reader", func() {
		It("reads bulk strings larger than one read chunk", func() {
			payload := strings.Repeat("0123456789abcdef", 10000)
			input := fmt.Sprintf("$%d\r\n%s\r\n", len(payload), payload)

			v, err := protocol.NewReader(iotest.HalfReader(strings.NewReader(input))).ReadValue()
			Expect(err).To(Succeed())
			Expect(v.Text()).To(Equal(payload))
		})

		It("does not allocate a declared length ahead of the data", func() {
			input := fmt.Sprintf("$%d\r\nonly a few bytes", protocol.MaxBulkLength)

			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)

			_, err := protocol.ReadFrame(protocol.NewReader(strings.NewReader(input)))

			runtime.ReadMemStats(&after)

			Expect(err).To(MatchError(io.ErrUnexpectedEOF))
			Expect(after.TotalAlloc - before.TotalAlloc).To(BeNumerically("<", 16*1024*1024))
		})

		It("reports buffered bytes", func() {
			r := protocol.NewReader(bytes.NewReader([]byte("+a\r\n+b\r\n")))

			_, err := r.ReadValue()
			Expect(err).To(Succeed())
			Expect(r.Buffered()).To(Equal(4))
		})
	})
})
