package server

import "context"

// Service is the capability set a registered handler must provide
// (spec.md section 4.F/6). Call is invoked with the method suffix only —
// the part after the first dot in "<service>.<method>" — and with the
// deserialized payload bytes verbatim. Any error Call returns becomes the
// Response.Error string on the wire.
type Service interface {
	Call(ctx context.Context, method string, payload []byte) ([]byte, error)
	Methods() []string
}
