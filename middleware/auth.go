package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextSessionKey stores the full *utils.SessionClaims.
	ContextSessionKey = "session"
	// ContextSessionTokenKey stores the raw session token.
	ContextSessionTokenKey = "session_token"
)

const (
	msgForbidden        = "Không có quyền truy cập!"
	msgNoPostPermission = "Bạn không có quyền đăng tài liệu. Vui lòng liên hệ quản trị viên để được cấp quyền."
)

// LoadSession attaches the session identity, when present, to the context.
// It never rejects a request.
func LoadSession(sm *utils.SessionManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, token, err := sm.Read(ctx)
		if err == nil {
			ctx.Set(ContextSessionKey, claims)
			ctx.Set(ContextSessionTokenKey, token)
			ctx.Set(ContextUserIDKey, claims.UserID)
			ctx.Set(ContextUsernameKey, claims.Username)
		}
		ctx.Next()
	}
}

// CurrentSession returns the identity loaded by LoadSession.
func CurrentSession(ctx *gin.Context) (*utils.SessionClaims, bool) {
	v, ok := ctx.Get(ContextSessionKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.SessionClaims)
	return claims, ok && claims != nil
}

// RequireAuth redirects anonymous requests to the login page.
func RequireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := CurrentSession(ctx); !ok {
			ctx.Redirect(http.StatusFound, "/login")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// RequireAdmin rejects every session whose role is not admin.
func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := CurrentSession(ctx)
		if !ok || claims.Role != models.RoleAdmin {
			utils.Error(ctx, http.StatusForbidden, 40300, msgForbidden)
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// RequireCanPost reads the user's can_post flag from the database on every
// request, so permission changes apply to sessions already issued. Role does
// not bypass the check.
func RequireCanPost(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := CurrentSession(ctx)
		if !ok {
			ctx.Redirect(http.StatusFound, "/login")
			ctx.Abort()
			return
		}
		var user models.User
		err := db.Select("id", "can_post").First(&user, claims.UserID).Error
		if err != nil || !user.CanPost {
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Sugar.Errorw("can_post lookup failed", "user_id", claims.UserID, "error", err)
			}
			utils.Error(ctx, http.StatusForbidden, 40301, msgNoPostPermission)
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
