package auth

import (
	"context"

	"github.com/dmitrijs2005/profilekeeper/internal/server/models"
)

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying the verified profile.
func WithIdentity(ctx context.Context, p *models.PublicProfile) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// IdentityFromContext returns the profile stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (*models.PublicProfile, bool) {
	p, ok := ctx.Value(ctxKey{}).(*models.PublicProfile)
	return p, ok && p != nil
}
