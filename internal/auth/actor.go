package auth

import "context"

const RoleAdmin = "admin"

// Actor is the caller of a cart or order operation. UserID is empty for
// anonymous visitors; SessionCartID is always set.
type Actor struct {
	UserID        string
	Role          string
	SessionCartID string
}

func (a Actor) Authenticated() bool {
	return a.UserID != ""
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
