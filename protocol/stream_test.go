package protocol_test

import (
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/picoredis/protocol"
)

const multiMessageStream = "*3\r\n$3\r\nSET\r\n$15\r\nmemtier-8232902\r\n$2\r\nxx\r\n" +
	"*3\r\n$3\r\nSET\r\n$15\r\nmemtier-8232902\r\n$2\r\nxx\r\n" +
	"*3\r\n$3\r\nSET\r\n$15\r\nmemtier-7630684\r\n$3\r\nAAA\r\n"

func bulks(ss ...string) protocol.Value {
	values := make([]protocol.Value, len(ss))
	for i, s := range ss {
		values[i] = protocol.MakeBulkString([]byte(s))
	}
	return protocol.MakeArray(values...)
}

var _ = Describe("Stream", func() {
	Describe("Scanner", func() {
		It("yields every value in order with its end offset", func() {
			s := protocol.NewScanner([]byte(multiMessageStream))

			var (
				values  []protocol.Value
				offsets []int
			)
			for s.Scan() {
				values = append(values, s.Value())
				offsets = append(offsets, s.Offset())
			}

			Expect(s.Err()).To(Succeed())
			Expect(values).To(Equal([]protocol.Value{
				bulks("SET", "memtier-8232902", "xx"),
				bulks("SET", "memtier-8232902", "xx"),
				bulks("SET", "memtier-7630684", "AAA"),
			}))
			Expect(offsets).To(Equal([]int{43, 86, 130}))
			Expect(offsets[2]).To(Equal(len(multiMessageStream)))
		})

		It("yields nothing for an empty buffer", func() {
			s := protocol.NewScanner(nil)
			Expect(s.Scan()).To(BeFalse())
			Expect(s.Err()).To(Succeed())
		})

		It("stops at the first defect and keeps what came before", func() {
			s := protocol.NewScanner([]byte("+OK\r\n:1\r\n$5\r\nab"))

			Expect(s.Scan()).To(BeTrue())
			Expect(s.Value().Text()).To(Equal("OK"))
			Expect(s.Scan()).To(BeTrue())
			Expect(s.Value().Int).To(Equal(int64(1)))

			Expect(s.Scan()).To(BeFalse())
			Expect(errors.Is(s.Err(), protocol.ErrProtocol)).To(BeTrue())
			Expect(s.Offset()).To(Equal(9))

			// a failed scanner stays failed
			Expect(s.Scan()).To(BeFalse())
		})
	})

	Describe("ParseStream()", func() {
		It("decodes concatenated requests", func() {
			req := append(protocol.EncodeRequest(protocol.Strings("PING")...),
				protocol.EncodeRequest(protocol.Strings("GET", "k")...)...)
			req = append(req, protocol.EncodeRequest(protocol.Strings("DEL", "a", "b")...)...)

			values, err := protocol.ParseStream(req)
			Expect(err).To(Succeed())
			Expect(values).To(HaveLen(3))
			Expect(values[0]).To(Equal(bulks("PING")))
			Expect(values[1]).To(Equal(bulks("GET", "k")))
			Expect(values[2]).To(Equal(bulks("DEL", "a", "b")))
		})

		It("returns the values before a failure with the error", func() {
			values, err := protocol.ParseStream([]byte("+a\r\n+b\r\n%oops\r\n"))
			Expect(values).To(Equal([]protocol.Value{
				protocol.MakeSimpleString("a"),
				protocol.MakeSimpleString("b"),
			}))

			var perr *protocol.ProtocolError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Offset).To(Equal(8))
		})
	})
})
