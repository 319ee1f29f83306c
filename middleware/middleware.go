// Package middleware provides HTTP authorization middleware for Lectern.
package middleware

import (
	"encoding/json"

	"github.com/xraph/forge"

	"github.com/lecternhq/lectern"
	"github.com/lecternhq/lectern/id"
)

// Require enforces a single permission on the resource named by the route.
// The user is resolved from the request context (Authsome user > anonymous)
// and the resource ID is read from the route param (default "id").
func Require(eng *lectern.Engine, permission string, paramNames ...string) forge.Middleware {
	param := "id"
	if len(paramNames) > 0 {
		param = paramNames[0]
	}
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			resID, err := id.ParseResourceID(ctx.Param(param))
			if err != nil {
				return denyResponse(ctx)
			}
			err = eng.Enforce(ctx.Context(), &lectern.ResolveRequest{
				UserID:     resolveUser(ctx),
				ResourceID: resID,
				Permission: permission,
			})
			if err != nil {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if ANY of the permissions resolves to allow
// on the resource named by the route param.
func RequireAny(eng *lectern.Engine, param string, permissions ...string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			resID, err := id.ParseResourceID(ctx.Param(param))
			if err != nil {
				return denyResponse(ctx)
			}
			userID := resolveUser(ctx)
			for _, perm := range permissions {
				result, err := eng.Resolve(ctx.Context(), &lectern.ResolveRequest{
					UserID:     userID,
					ResourceID: resID,
					Permission: perm,
				})
				if err == nil && result.Allowed {
					return next(ctx)
				}
			}
			return denyResponse(ctx)
		}
	}
}

// RequireAll allows the request only if ALL permissions resolve to allow.
func RequireAll(eng *lectern.Engine, param string, permissions ...string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			resID, err := id.ParseResourceID(ctx.Param(param))
			if err != nil {
				return denyResponse(ctx)
			}
			userID := resolveUser(ctx)
			for _, perm := range permissions {
				err := eng.Enforce(ctx.Context(), &lectern.ResolveRequest{
					UserID:     userID,
					ResourceID: resID,
					Permission: perm,
				})
				if err != nil {
					return denyResponse(ctx)
				}
			}
			return next(ctx)
		}
	}
}

// resolveUser extracts the calling user from context.
// Priority: Forge user ID (from Authsome) → anonymous.
func resolveUser(ctx forge.Context) string {
	if userID := forge.UserIDFromContext(ctx.Context()); userID != "" {
		return userID
	}
	return "anonymous"
}

func denyResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(403)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "access denied"})
}
