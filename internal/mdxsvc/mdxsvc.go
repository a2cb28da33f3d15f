// Package mdxsvc simulates an out-of-core MDX compile service: it
// resolves an MDX component name to an opaque, content-addressed
// module id. No JavaScript/JSX ever runs here — this is a stand-in a
// streaming pipeline can exercise deterministically. Grounded on
// jinterlante1206-AleutianLocal's services/orchestrator request/
// response worker shape (a small goroutine pool draining a request
// channel).
package mdxsvc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownComponent is returned when a component name has no
// registry entry.
var ErrUnknownComponent = errors.New("mdxsvc: unknown component")

// Request asks the service to resolve one MDX component invocation.
type Request struct {
	Component string
	Props     map[string]string
}

// Response carries the resolved, opaque module id.
type Response struct {
	ModuleID string
}

type job struct {
	req   Request
	reply chan result
}

type result struct {
	resp Response
	err  error
}

// Compiler is the public request/response contract the MDX compile
// collaborator must satisfy.
type Compiler interface {
	Compile(ctx context.Context, req Request) (Response, error)
}

// Service is a worker-pool-backed Compiler. A small in-memory registry
// stands in for a real component resolution step.
type Service struct {
	registry map[string]bool
	jobs     chan job
	done     chan struct{}
}

// New starts a Service with workers goroutines draining its request
// queue, seeded with the given known component names.
func New(workers int, knownComponents []string) *Service {
	if workers < 1 {
		workers = 1
	}

	registry := make(map[string]bool, len(knownComponents))
	for _, c := range knownComponents {
		registry[c] = true
	}

	s := &Service{
		registry: registry,
		jobs:     make(chan job),
		done:     make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		go s.worker()
	}

	return s
}

// Close stops every worker goroutine. Compile calls made after Close
// return an error; callers must not call Close while requests are in
// flight.
func (s *Service) Close() {
	close(s.done)
}

func (s *Service) worker() {
	for {
		select {
		case <-s.done:
			return
		case j := <-s.jobs:
			j.reply <- s.resolve(j.req)
		}
	}
}

func (s *Service) resolve(req Request) result {
	if !s.registry[req.Component] {
		return result{err: fmt.Errorf("%w: %s", ErrUnknownComponent, req.Component)}
	}

	return result{resp: Response{ModuleID: moduleID(req)}}
}

// Compile submits req to the worker pool and waits for either a
// result or ctx cancellation.
func (s *Service) Compile(ctx context.Context, req Request) (Response, error) {
	reply := make(chan result, 1)

	select {
	case s.jobs <- job{req: req, reply: reply}:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-s.done:
		return Response{}, errors.New("mdxsvc: service closed")
	}

	select {
	case r := <-reply:
		return r.resp, r.err
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// moduleID derives a stable, content-addressed id from the component
// name and its props so identical invocations always resolve to the
// same module id, satisfying the "opaque compiled module id" contract.
func moduleID(req Request) string {
	keys := make([]string, 0, len(req.Props))
	for k := range req.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	_, _ = h.Write([]byte(req.Component))
	for _, k := range keys {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte{'='})
		_, _ = h.Write([]byte(req.Props[k]))
	}

	return "mdx:" + hex.EncodeToString(h.Sum(nil))[:16]
}
