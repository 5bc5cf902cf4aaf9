package wire

import (
	"strings"

	"github.com/aashishbishow/quicserve/rpcerror"
)

// Format selects how the Request/Response envelope (and, by convention, the
// opaque payload inside it) is serialized on one connection. Both peers
// must agree on a Format out of band; it is fixed for the lifetime of the
// connection.
type Format int

const (
	// FormatProtobuf is the default: envelopes are encoded with the
	// hand-rolled protowire codec in protobuf.go.
	FormatProtobuf Format = iota
	// FormatJSON encodes envelopes with encoding/json; []byte fields are
	// base64 strings on the wire, which is encoding/json's native
	// behavior for a []byte field.
	FormatJSON
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case FormatProtobuf:
		return "protobuf"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat parses the CLI/config spelling of a format ("protobuf",
// "proto", or "json", case-insensitively).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "protobuf", "proto":
		return FormatProtobuf, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, rpcerror.New(rpcerror.KindInvalidConfig, "unknown serialization format: %q", s)
	}
}
