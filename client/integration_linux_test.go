//go:build linux

package client_test

import (
	"context"
	"errors"
	"net"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/picoredis/client"
	"github.com/luma/picoredis/protocol"
	"github.com/luma/picoredis/storage"
	"github.com/luma/picoredis/transport"
)

var _ = Describe("client / against a server", func() {
	var (
		server *transport.Server
		c      *client.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()

		server = transport.NewServer(transport.Options{
			Host:     "127.0.0.1",
			Password: "s3cret",
			Store:    storage.NewInmemoryStore(),
		})
		Expect(server.Start(ctx)).To(Succeed())

		addr := server.Addr().(*net.TCPAddr)

		c = client.New(client.WithTimeout(2 * time.Second))
		Expect(c.Connect(ctx, "127.0.0.1", addr.Port)).To(Succeed())
	})

	AfterEach(func() {
		Expect(c.Close()).To(Succeed())
		Expect(server.Close()).To(Succeed())
	})

	It("runs the typed commands", func() {
		_, err := c.Ping(ctx)

		var serverErr *client.ServerError
		Expect(errors.As(err, &serverErr)).To(BeTrue())
		Expect(serverErr.Kind).To(Equal("NOAUTH"))

		Expect(c.Auth(ctx, "s3cret")).To(Succeed())
		Expect(c.Select(ctx, 0)).To(Succeed())

		pong, err := c.Ping(ctx)
		Expect(err).To(Succeed())
		Expect(pong).To(Equal("PONG"))

		echo, err := c.Echo(ctx, "hello\r\nworld")
		Expect(err).To(Succeed())
		Expect(echo).To(Equal("hello\r\nworld"))

		Expect(c.Set(ctx, "pi", 3.141)).To(Succeed())
		Expect(c.Set(ctx, "count", 41)).To(Succeed())

		value, ok, err := c.Get(ctx, "pi")
		Expect(err).To(Succeed())
		Expect(ok).To(BeTrue())
		Expect(string(value)).To(Equal("3.141"))

		_, ok, err = c.Get(ctx, "missing")
		Expect(err).To(Succeed())
		Expect(ok).To(BeFalse())

		n, err := c.Incr(ctx, "count")
		Expect(err).To(Succeed())
		Expect(n).To(Equal(int64(42)))

		keys, err := c.Keys(ctx, "*")
		Expect(err).To(Succeed())
		Expect(keys).To(Equal([]string{"count", "pi"}))

		exists, err := c.Exists(ctx, "pi", "missing")
		Expect(err).To(Succeed())
		Expect(exists).To(Equal(int64(1)))

		deleted, err := c.Del(ctx, "pi", "count")
		Expect(err).To(Succeed())
		Expect(deleted).To(Equal(int64(2)))

		_, err = c.Expire(ctx, "pi", time.Minute)
		Expect(errors.As(err, &serverErr)).To(BeTrue())
		Expect(serverErr.Message).To(Equal("unknown command 'EXPIRE'"))
		Expect(c.State()).To(Equal(client.Connected))
	})

	It("carries large bulk strings", func() {
		Expect(c.Auth(ctx, "default", "s3cret")).To(Succeed())

		big := make([]byte, 256*1024)
		for i := range big {
			big[i] = 'a' + byte(i%26)
		}

		Expect(c.Set(ctx, "big", big)).To(Succeed())

		value, ok, err := c.Get(ctx, "big")
		Expect(err).To(Succeed())
		Expect(ok).To(BeTrue())
		Expect(value).To(Equal(big))
	})

	It("closes after QUIT", func() {
		Expect(c.Quit(ctx)).To(Succeed())
		Expect(c.State()).To(Equal(client.Closed))
	})

	It("closes itself when the server goes away", func() {
		Expect(c.Auth(ctx, "s3cret")).To(Succeed())
		Expect(server.Close()).To(Succeed())

		_, err := c.Command(ctx, string(protocol.PING))

		var connErr *client.ConnectionError
		Expect(errors.As(err, &connErr)).To(BeTrue())
		Expect(c.State()).To(Equal(client.Closed))
	})
})
