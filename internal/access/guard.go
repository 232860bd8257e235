// Package access decides who may reach a route and who may change a resource.
package access

import (
	"context"
	"log/slog"

	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/session"

	"github.com/gofiber/fiber/v2"
)

type identityKey struct{}

// WithIdentity returns ctx carrying the authenticated caller.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller stored by the guard, if any.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}

// Allows reports whether role may pass a guard restricted to allowed.
// An empty set admits every role.
func Allows(role models.Role, allowed []models.Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// Guard admits requests whose session holds a verified email and, when roles is
// non-empty, one of roles.
// Admitted requests carry the identity on the user context and the caller id in
// the "userID" local.
func Guard(resolver session.Resolver, roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		s, err := resolver.Resolve(ctx, session.Headers(c.GetReqHeaders()))
		if err != nil {
			middleware.Logger.ErrorContext(ctx, "session resolution failed", slog.String("error", err.Error()))
			return models.RespondWithError(c, models.NewStoreError(err))
		}
		if s == nil {
			return deny(c, "unauthenticated", models.NewUnauthenticatedError("You are not authorized"))
		}
		if !s.EmailVerified {
			return deny(c, "email_unverified", models.NewEmailUnverifiedError())
		}
		if !Allows(s.Identity.Role, roles) {
			return deny(c, "forbidden_role", models.NewForbiddenRoleError())
		}

		c.Locals("userID", s.Identity.ID)
		ctx = middleware.WithUserID(ctx, s.Identity.ID)
		c.SetUserContext(WithIdentity(ctx, s.Identity))
		return c.Next()
	}
}

func deny(c *fiber.Ctx, reason string, err *models.AppError) error {
	observability.AccessDenials.WithLabelValues(reason).Inc()
	return models.RespondWithError(c, err)
}
