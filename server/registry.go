package server

import (
	"sync"

	"github.com/aashishbishow/quicserve/rpcerror"
)

// registry is the server's service registry (spec.md section 3): a
// mapping from service name to a shared service handle. Read-heavy, so a
// plain RWMutex suffices over the lifetime of a server.
type registry struct {
	mu       sync.RWMutex
	services map[string]Service
}

func newRegistry() *registry {
	return &registry{services: make(map[string]Service)}
}

// register rejects duplicate names.
func (r *registry) register(name string, svc Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[name]; exists {
		return rpcerror.New(rpcerror.KindInvalidConfig, "service %q already registered", name)
	}
	r.services[name] = svc
	return nil
}

func (r *registry) lookup(name string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[name]
	return svc, ok
}
