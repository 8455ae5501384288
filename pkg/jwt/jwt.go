// Package jwt wires viewer identity. Mutation routes require a valid
// access token; read routes go through OptionalAuth, which resolves the
// viewer when a token is present and stays anonymous otherwise.
package jwt

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzjwt "github.com/hertz-contrib/jwt"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vidtube.com/pkg/errno"
)

const identityKey = "user_id"

// AuthFunc checks credentials and returns the user id hex on success.
type AuthFunc func(ctx context.Context, identifier, password string) (string, error)

// SessionStore persists the token issued at login so logout can revoke it
// and refresh can reject revoked sessions.
type SessionStore interface {
	StoreSession(ctx context.Context, userHex, token string) error
	ValidateSession(ctx context.Context, userHex, token string) error
}

var (
	AuthMiddleware *hertzjwt.HertzJWTMiddleware
	sessions       SessionStore
)

type loginParam struct {
	Identifier string `json:"identifier" form:"identifier"`
	Password   string `json:"password" form:"password"`
}

func Init(secret string, accessTTL, refreshTTL time.Duration, auth AuthFunc, store SessionStore) error {
	sessions = store
	mw, err := hertzjwt.New(&hertzjwt.HertzJWTMiddleware{
		Realm:       "vidtube",
		Key:         []byte(secret),
		Timeout:     accessTTL,
		MaxRefresh:  refreshTTL,
		IdentityKey: identityKey,
		PayloadFunc: func(data interface{}) hertzjwt.MapClaims {
			if id, ok := data.(string); ok {
				return hertzjwt.MapClaims{identityKey: id}
			}
			return hertzjwt.MapClaims{}
		},
		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := hertzjwt.ExtractClaims(ctx, c)
			return claims[identityKey]
		},
		Authenticator: func(ctx context.Context, c *app.RequestContext) (interface{}, error) {
			var login loginParam
			if err := c.BindAndValidate(&login); err != nil {
				return nil, errno.ParamErr
			}
			if login.Identifier == "" || login.Password == "" {
				return nil, errno.ParamErr.WithMessage("identifier and password are required")
			}
			id, err := auth(ctx, login.Identifier, login.Password)
			if err != nil {
				return nil, err
			}
			c.Set(identityKey, id)
			return id, nil
		},
		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			writeUnauthorized(c)
		},
		LoginResponse: func(ctx context.Context, c *app.RequestContext, code int, token string, expire time.Time) {
			if id, ok := c.Get(identityKey); ok && sessions != nil {
				hex, _ := id.(string)
				if err := sessions.StoreSession(ctx, hex, token); err != nil {
					hlog.CtxErrorf(ctx, "Failed to store session for user %s: %v", hex, err)
					e := errno.ServiceErr
					c.JSON(e.StatusCode, map[string]interface{}{
						"statusCode": e.StatusCode,
						"success":    false,
						"data":       nil,
						"message":    e.ErrMsg,
					})
					return
				}
			}
			writeToken(c, token, expire, "Login successful")
		},
	})
	if err != nil {
		return errors.Wrap(err, "init jwt middleware")
	}
	AuthMiddleware = mw
	return nil
}

// RefreshHandler rotates the access token. The presented token must still
// match the stored session, so a logged-out session cannot be renewed. The
// new token replaces the stored one.
func RefreshHandler() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		claims, err := AuthMiddleware.CheckIfTokenExpire(ctx, c)
		if err != nil {
			writeUnauthorized(c)
			return
		}
		hex, _ := claims[identityKey].(string)
		if sessions != nil {
			if err := sessions.ValidateSession(ctx, hex, rawToken(c)); err != nil {
				writeUnauthorized(c)
				return
			}
		}
		token, expire, err := AuthMiddleware.RefreshToken(ctx, c)
		if err != nil {
			writeUnauthorized(c)
			return
		}
		if sessions != nil {
			if err := sessions.StoreSession(ctx, hex, token); err != nil {
				hlog.CtxErrorf(ctx, "Failed to rotate session for user %s: %v", hex, err)
			}
		}
		writeToken(c, token, expire, "Token refreshed successfully")
	}
}

func rawToken(c *app.RequestContext) string {
	header := string(c.GetHeader("Authorization"))
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return header[len(prefix):]
	}
	return header
}

func writeUnauthorized(c *app.RequestContext) {
	e := errno.AuthorizationFailed
	c.JSON(e.StatusCode, map[string]interface{}{
		"statusCode": e.StatusCode,
		"success":    false,
		"data":       nil,
		"message":    e.ErrMsg,
	})
}

func writeToken(c *app.RequestContext, token string, expire time.Time, message string) {
	c.JSON(200, map[string]interface{}{
		"statusCode": 200,
		"success":    true,
		"data": map[string]interface{}{
			"accessToken": token,
			"expiresAt":   expire.Unix(),
		},
		"message": message,
	})
}

// OptionalAuth resolves the viewer when a token is supplied but never
// rejects the request. Anonymous viewers see is_liked/is_subscribed as
// false; they are not an error case for reads.
func OptionalAuth() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if AuthMiddleware != nil {
			if claims, err := AuthMiddleware.GetClaimsFromJWT(ctx, c); err == nil {
				if id, ok := claims[identityKey].(string); ok {
					c.Set(identityKey, id)
				}
			}
		}
		c.Next(ctx)
	}
}

// ViewerID returns the authenticated viewer id, if any.
func ViewerID(c *app.RequestContext) (primitive.ObjectID, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	s, ok := v.(string)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
