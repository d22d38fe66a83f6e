package protocol

// Command is the name of a server command. Names are case insensitive on the
// wire but are always sent upper case by this package's callers.
type Command string

const (
	AUTH   Command = "AUTH"
	DEL    Command = "DEL"
	ECHO   Command = "ECHO"
	EXISTS Command = "EXISTS"
	EXPIRE Command = "EXPIRE"
	GET    Command = "GET"
	HELLO  Command = "HELLO"
	INCR   Command = "INCR"
	KEYS   Command = "KEYS"
	PING   Command = "PING"
	QUIT   Command = "QUIT"
	SELECT Command = "SELECT"
	SET    Command = "SET"
)

// Arg returns the command name as a request argument.
func (c Command) Arg() Arg {
	return String(string(c))
}

var (
	// ReplyOK is the status reply to most write commands
	ReplyOK = MakeSimpleString("OK")

	// ReplyPong is the status reply to a bare PING
	ReplyPong = MakeSimpleString("PONG")
)
