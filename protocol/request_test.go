package protocol_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/picoredis/protocol"
)

var _ = Describe("Request arguments", func() {
	payload := func(v interface{}) string {
		arg, err := protocol.ArgOf(v)
		ExpectWithOffset(1, err).To(Succeed())
		return string(arg.Payload())
	}

	Describe("ArgOf()", func() {
		It("converts integers of every width", func() {
			Expect(payload(int8(-8))).To(Equal("-8"))
			Expect(payload(int32(1 << 20))).To(Equal("1048576"))
			Expect(payload(int64(math.MinInt64))).To(Equal("-9223372036854775808"))
			Expect(payload(uint64(math.MaxUint64))).To(Equal("18446744073709551615"))
			Expect(payload(uint8(255))).To(Equal("255"))
		})

		It("formats floats with the shortest round-trip representation", func() {
			Expect(payload(3.141)).To(Equal("3.141"))
			Expect(payload(100.0)).To(Equal("100"))
			Expect(payload(0.1)).To(Equal("0.1"))
			Expect(payload(1e21)).To(Equal("1e+21"))
			Expect(payload(-2.5e-7)).To(Equal("-2.5e-07"))
			Expect(payload(float32(0.1))).To(Equal("0.1"))
			Expect(payload(math.Inf(1))).To(Equal("+Inf"))
			Expect(payload(math.Inf(-1))).To(Equal("-Inf"))
		})

		It("converts bools to 1 and 0", func() {
			Expect(payload(true)).To(Equal("1"))
			Expect(payload(false)).To(Equal("0"))
		})

		It("converts nil to the null argument", func() {
			arg, err := protocol.ArgOf(nil)
			Expect(err).To(Succeed())
			Expect(arg.IsNull()).To(BeTrue())
			Expect(arg.Payload()).To(BeNil())
		})

		It("passes text and bytes through", func() {
			Expect(payload("héllo")).To(Equal("héllo"))
			Expect(payload([]byte{0, 1, 2})).To(Equal("\x00\x01\x02"))
			Expect(payload(protocol.String("as is"))).To(Equal("as is"))
		})

		It("rejects unsupported types", func() {
			_, err := protocol.ArgOf(struct{}{})
			Expect(errors.Is(err, protocol.ErrUnsupportedArg)).To(BeTrue())
		})
	})

	Describe("Args()", func() {
		It("converts a mixed list in order", func() {
			args, err := protocol.Args("SET", "n", 1.5, nil)
			Expect(err).To(Succeed())
			Expect(string(protocol.EncodeRequest(args...))).
				To(Equal("*4\r\n$3\r\nSET\r\n$1\r\nn\r\n$3\r\n1.5\r\n$-1\r\n"))
		})

		It("names the offending argument", func() {
			_, err := protocol.Args("SET", make(chan int))
			Expect(err).To(MatchError(ContainSubstring("argument 1")))
			Expect(errors.Is(err, protocol.ErrUnsupportedArg)).To(BeTrue())
		})
	})
})
