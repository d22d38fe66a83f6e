package protocol

// This package implements parsing and serialising payloads for the Redis
// serialization protocol (RESP, version 2) that picoredis speaks to servers.
//
// The protocol aims to be
//
// - simple to implement
// - fast to parse
// - human readable
//
// - `Value`   - One decoded unit of the protocol (simple string, error,
//               integer, bulk string or array).
// - `Request` - A command sent to a server. Requests are always an array of
//               bulk strings, the command name first.
// - `Frame`   - The raw bytes of exactly one Value, as read off a stream.
//
// === General Syntax
//
// - lines are `\r\n` delimited
// - the first byte of a value is its type prefix
// - lengths and counts are base-10 ASCII integers
//
//   ```
//     +<text>\r\n                  simple string
//     -<kind>[ <message>]\r\n      error
//     :<integer>\r\n               integer
//     $<length>\r\n<bytes>\r\n     bulk string
//     *<count>\r\n<values...>      array
//   ```
//
// A length or count of -1 is the null bulk string / null array. Null is never
// the same as empty:
//
//   ```
//     $-1\r\n      null bulk string
//     $0\r\n\r\n   empty bulk string
//     *-1\r\n      null array
//     *0\r\n       empty array
//   ```
//
// === Requests
//
//   ```
//     > *3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n
//     < +OK\r\n
//   ```
//
// Integers and floats are sent as their decimal text. A null argument is sent
// as `$-1\r\n`.
//
// === Decoding
//
// Decode works on a complete buffer and never reads past its end; any
// malformed or truncated input is reported as a *ProtocolError carrying the
// byte offset of the defect.
//
// Streams are decoded in two steps. ReadFrame pulls exactly the bytes of one
// value out of a Source (line by line, then by count for bulk payloads), and
// Decode turns that frame into a Value. This lets a client bound how long it
// waits for bytes without the decoder knowing anything about the network.
