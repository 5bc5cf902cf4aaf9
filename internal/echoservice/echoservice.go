// Package echoservice is the demo service the CLI's server subcommand
// registers: a single "echo" method that returns its input unchanged
// (spec.md section 8, scenario 1).
package echoservice

import (
	"context"

	"github.com/aashishbishow/quicserve/rpcerror"
)

// Name is the service name this handle registers under.
const Name = "echo"

// Service implements server.Service with one method, "echo".
type Service struct{}

// New returns a ready-to-register echo service.
func New() *Service {
	return &Service{}
}

// Methods lists the method names this service handles.
func (s *Service) Methods() []string {
	return []string{"echo"}
}

// Call returns payload unchanged for method "echo"; any other method
// fails with KindMethodNotFound.
func (s *Service) Call(ctx context.Context, method string, payload []byte) ([]byte, error) {
	if method != "echo" {
		return nil, rpcerror.New(rpcerror.KindMethodNotFound, "echo service has no method %q", method)
	}
	return payload, nil
}
