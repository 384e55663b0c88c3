// Package router dispatches inbound envelopes to the handler registered
// for their kind. One router per consuming service.
package router

import (
	"context"
	"log"

	"github.com/microshop/microshop/internal/broker"
	"github.com/microshop/microshop/internal/event"
)

// HandlerFunc processes one decoded envelope and decides its fate.
type HandlerFunc func(ctx context.Context, env event.Envelope) broker.Action

type Router struct {
	service  string
	handlers map[event.Kind]HandlerFunc
}

func New(service string) *Router {
	return &Router{
		service:  service,
		handlers: make(map[event.Kind]HandlerFunc),
	}
}

func (r *Router) Register(kind event.Kind, h HandlerFunc) {
	r.handlers[kind] = h
}

// Handle is the broker.Handler for every queue this service consumes.
// Unknown kinds are logged and acknowledged so future event kinds never
// break an older consumer or wedge a queue. Undecodable bodies are
// dropped, not requeued; redelivery would never fix them.
func (r *Router) Handle(ctx context.Context, d broker.Delivery) broker.Action {
	env, err := event.Decode(d.Body)
	if err != nil {
		log.Printf("❌ [%s] Bad envelope on %s: %v", r.service, d.Queue, err)
		return broker.Drop
	}

	h, ok := r.handlers[env.Kind]
	if !ok {
		log.Printf("📥 [%s] Ignoring unknown event %q on %s", r.service, env.Kind, d.Queue)
		return broker.Ack
	}

	return h(ctx, env)
}
