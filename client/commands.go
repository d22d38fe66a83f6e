package client

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/luma/picoredis/protocol"
)

// Ping returns the server's status reply, normally "PONG".
func (c *Client) Ping(ctx context.Context) (string, error) {
	reply, err := c.Command(ctx, string(protocol.PING))
	if err != nil {
		return "", err
	}

	if reply.Kind != protocol.KindSimpleString {
		return "", unexpected(protocol.PING, reply)
	}

	return reply.Text(), nil
}

func (c *Client) Echo(ctx context.Context, message string) (string, error) {
	reply, err := c.Command(ctx, string(protocol.ECHO), protocol.String(message))
	if err != nil {
		return "", err
	}

	if reply.Kind != protocol.KindBulkString || reply.IsNull() {
		return "", unexpected(protocol.ECHO, reply)
	}

	return reply.Text(), nil
}

// Auth sends credentials as they are given, a password or a username and
// password.
func (c *Client) Auth(ctx context.Context, credentials ...string) error {
	return c.expectOK(ctx, protocol.AUTH, protocol.Strings(credentials...)...)
}

func (c *Client) Select(ctx context.Context, db int) error {
	return c.expectOK(ctx, protocol.SELECT, protocol.Int(int64(db)))
}

// Get returns the value of key. ok is false if the key does not exist.
func (c *Client) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	reply, err := c.Command(ctx, string(protocol.GET), protocol.String(key))
	if err != nil {
		return nil, false, err
	}

	if reply.Kind != protocol.KindBulkString {
		return nil, false, unexpected(protocol.GET, reply)
	}

	if reply.IsNull() {
		return nil, false, nil
	}

	return reply.Str, true, nil
}

// Set stores value under key. value can be anything protocol.ArgOf accepts.
func (c *Client) Set(ctx context.Context, key string, value interface{}) error {
	arg, err := protocol.ArgOf(value)
	if err != nil {
		return err
	}

	return c.expectOK(ctx, protocol.SET, protocol.String(key), arg)
}

// Del returns the number of keys removed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	return c.expectInteger(ctx, protocol.DEL, protocol.Strings(keys...)...)
}

// Exists returns how many of keys exist, counting repeats.
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	return c.expectInteger(ctx, protocol.EXISTS, protocol.Strings(keys...)...)
}

func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.expectInteger(ctx, protocol.INCR, protocol.String(key))
}

// Expire sets a time to live on key, in whole seconds. It reports whether
// the key existed.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	n, err := c.expectInteger(ctx, protocol.EXPIRE, protocol.String(key), protocol.Int(int64(ttl/time.Second)))
	return n == 1, err
}

func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
	reply, err := c.Command(ctx, string(protocol.KEYS), protocol.String(pattern))
	if err != nil {
		return nil, err
	}

	if reply.Kind != protocol.KindArray || reply.IsNull() {
		return nil, unexpected(protocol.KEYS, reply)
	}

	keys := make([]string, 0, len(reply.Array))
	for _, v := range reply.Array {
		if v.Kind != protocol.KindBulkString || v.IsNull() {
			return nil, unexpected(protocol.KEYS, reply)
		}
		keys = append(keys, v.Text())
	}

	return keys, nil
}

// Quit asks the server to close the connection, then closes the client.
func (c *Client) Quit(ctx context.Context) error {
	err := c.expectOK(ctx, protocol.QUIT)
	return multierr.Append(err, c.Close())
}

func (c *Client) expectOK(ctx context.Context, cmd protocol.Command, args ...protocol.Arg) error {
	reply, err := c.Command(ctx, string(cmd), args...)
	if err != nil {
		return err
	}

	if !reply.Equal(protocol.ReplyOK) {
		return unexpected(cmd, reply)
	}

	return nil
}

func (c *Client) expectInteger(ctx context.Context, cmd protocol.Command, args ...protocol.Arg) (int64, error) {
	reply, err := c.Command(ctx, string(cmd), args...)
	if err != nil {
		return 0, err
	}

	if reply.Kind != protocol.KindInteger {
		return 0, unexpected(cmd, reply)
	}

	return reply.Int, nil
}

func unexpected(cmd protocol.Command, reply protocol.Value) error {
	return fmt.Errorf("%w to %s: %s", ErrUnexpectedReply, cmd, reply.Kind)
}
