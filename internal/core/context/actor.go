// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// SystemActor is recorded on documents created or validated outside an
// authenticated request (seeding, worker jobs, tests).
const SystemActor = "SYSTEM"

// Actor identifies who performs a ledger operation. It is recorded on
// documents as createdBy/validatedBy/cancelledBy; permission resolution is
// out of scope and lives with the caller.
type Actor struct {
	Subject string
	Name    string
}

type actorContextKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns Actor from context.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorContextKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// ActorName returns the acting subject from context, or SystemActor when the
// operation runs outside a request.
func ActorName(ctx context.Context) string {
	if a := GetActor(ctx); a != nil && a.Subject != "" {
		return a.Subject
	}
	return SystemActor
}
