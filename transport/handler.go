package transport

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/match"

	"github.com/luma/picoredis/protocol"
	"github.com/luma/picoredis/storage"
)

// storeTimeout bounds every storage call made on behalf of one request
const storeTimeout = 3 * time.Second

// session is the per-connection state commands may change.
type session struct {
	authenticated bool
}

type commandFunc func(ctx context.Context, s *session, args [][]byte) protocol.Value

type command struct {
	// arity counts the command name. A negative arity means at least -arity.
	arity int

	// noAuth commands may run before AUTH
	noAuth bool

	fn commandFunc
}

type handler struct {
	store    storage.Store
	password string
	metrics  *Metrics
	trace    bool

	table map[protocol.Command]command
}

func newHandler(options Options) *handler {
	h := &handler{
		store:    options.Store,
		password: options.Password,
		metrics:  options.Metrics,
		trace:    options.Trace,
	}

	h.table = map[protocol.Command]command{
		protocol.AUTH:   {arity: -2, noAuth: true, fn: h.auth},
		protocol.DEL:    {arity: -2, fn: h.del},
		protocol.ECHO:   {arity: 2, fn: h.echo},
		protocol.EXISTS: {arity: -2, fn: h.exists},
		protocol.GET:    {arity: 2, fn: h.get},
		protocol.INCR:   {arity: 2, fn: h.incr},
		protocol.KEYS:   {arity: 2, fn: h.keys},
		protocol.PING:   {arity: -1, fn: h.ping},
		protocol.QUIT:   {arity: -1, noAuth: true, fn: h.quit},
		protocol.SELECT: {arity: 2, fn: h.selectDB},
		protocol.SET:    {arity: -3, fn: h.set},
	}

	return h
}

// dispatch runs the command named by args[0]. quit is true once the reply
// to QUIT has been produced.
func (h *handler) dispatch(ctx context.Context, s *session, args [][]byte) (reply protocol.Value, quit bool) {
	name := string(args[0])
	label := "unknown"

	defer func() {
		h.metrics.commandHandled(label, reply.Kind == protocol.KindError)
	}()

	cmd, ok := h.table[protocol.Command(strings.ToUpper(name))]
	if !ok {
		return errorReply("ERR", "unknown command '%s'", name), false
	}

	label = strings.ToLower(name)

	if cmd.arity > 0 && len(args) != cmd.arity || cmd.arity < 0 && len(args) < -cmd.arity {
		return errorReply("ERR", "wrong number of arguments for '%s' command", label), false
	}

	if h.password != "" && !s.authenticated && !cmd.noAuth {
		return errorReply("NOAUTH", "Authentication required."), false
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	reply = cmd.fn(ctx, s, args[1:])
	return reply, strings.EqualFold(name, string(protocol.QUIT))
}

func (h *handler) ping(ctx context.Context, s *session, args [][]byte) protocol.Value {
	switch len(args) {
	case 0:
		return protocol.ReplyPong
	case 1:
		return protocol.MakeBulkString(args[0])
	default:
		return errorReply("ERR", "wrong number of arguments for 'ping' command")
	}
}

func (h *handler) echo(ctx context.Context, s *session, args [][]byte) protocol.Value {
	return protocol.MakeBulkString(args[0])
}

func (h *handler) quit(ctx context.Context, s *session, args [][]byte) protocol.Value {
	return protocol.ReplyOK
}

// auth accepts AUTH password and AUTH default password.
func (h *handler) auth(ctx context.Context, s *session, args [][]byte) protocol.Value {
	if len(args) > 2 {
		return errorReply("ERR", "syntax error")
	}

	if h.password == "" {
		return errorReply("ERR", "AUTH <password> called without any password configured for the default user. Are you sure your configuration is correct?")
	}

	password := args[len(args)-1]
	userOK := len(args) == 1 || string(args[0]) == "default"

	if !userOK || subtle.ConstantTimeCompare(password, []byte(h.password)) != 1 {
		s.authenticated = false
		return errorReply("WRONGPASS", "invalid username-password pair or user is disabled.")
	}

	s.authenticated = true
	return protocol.ReplyOK
}

// selectDB only knows database 0, the store has a single keyspace.
func (h *handler) selectDB(ctx context.Context, s *session, args [][]byte) protocol.Value {
	n, err := strconv.Atoi(string(args[0]))
	if err != nil {
		return errorReply("ERR", "value is not an integer or out of range")
	}

	if n != 0 {
		return errorReply("ERR", "DB index is out of range")
	}

	return protocol.ReplyOK
}

func (h *handler) get(ctx context.Context, s *session, args [][]byte) protocol.Value {
	value, ok, err := h.store.Get(ctx, string(args[0]))
	if err != nil {
		return storeErrorReply(err)
	}

	if !ok {
		return protocol.MakeNullBulkString()
	}

	return protocol.MakeBulkString(value)
}

// set supports the plain SET key value form only.
func (h *handler) set(ctx context.Context, s *session, args [][]byte) protocol.Value {
	if len(args) != 2 {
		return errorReply("ERR", "syntax error")
	}

	if err := h.store.Set(ctx, string(args[0]), args[1]); err != nil {
		return storeErrorReply(err)
	}

	return protocol.ReplyOK
}

func (h *handler) del(ctx context.Context, s *session, args [][]byte) protocol.Value {
	n, err := h.store.Del(ctx, keyStrings(args)...)
	if err != nil {
		return storeErrorReply(err)
	}

	return protocol.MakeInteger(int64(n))
}

func (h *handler) exists(ctx context.Context, s *session, args [][]byte) protocol.Value {
	n, err := h.store.Exists(ctx, keyStrings(args)...)
	if err != nil {
		return storeErrorReply(err)
	}

	return protocol.MakeInteger(int64(n))
}

func (h *handler) incr(ctx context.Context, s *session, args [][]byte) protocol.Value {
	n, err := h.store.Incr(ctx, string(args[0]))
	if err != nil {
		return storeErrorReply(err)
	}

	return protocol.MakeInteger(n)
}

// keys supports the '*' and '?' wildcards and backslash escapes.
func (h *handler) keys(ctx context.Context, s *session, args [][]byte) protocol.Value {
	pattern := string(args[0])

	keys, err := h.store.Keys(ctx)
	if err != nil {
		return storeErrorReply(err)
	}

	sort.Strings(keys)

	matched := make([]protocol.Value, 0, len(keys))
	for _, key := range keys {
		if match.Match(key, pattern) {
			matched = append(matched, protocol.MakeBulkString([]byte(key)))
		}
	}

	return protocol.MakeArray(matched...)
}

func keyStrings(args [][]byte) []string {
	keys := make([]string, len(args))
	for i, arg := range args {
		keys[i] = string(arg)
	}
	return keys
}

func errorReply(kind, format string, args ...interface{}) protocol.Value {
	return protocol.MakeError(kind, fmt.Sprintf(format, args...))
}

func storeErrorReply(err error) protocol.Value {
	switch {
	case errors.Is(err, storage.ErrNotInteger):
		return errorReply("ERR", "value is not an integer or out of range")
	case errors.Is(err, storage.ErrInvalidKey):
		return errorReply("ERR", "invalid key")
	default:
		return errorReply("ERR", "%s", err.Error())
	}
}
