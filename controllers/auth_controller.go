package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cppla/docportal/middleware"
	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/utils"
)

const (
	msgBadCredentials = "Tên đăng nhập hoặc mật khẩu không đúng!"
	msgLoginLocked    = "Tài khoản tạm thời bị khóa do đăng nhập sai nhiều lần. Vui lòng thử lại sau."
)

// AuthController handles local login and logout.
type AuthController struct {
	db       *gorm.DB
	sessions *utils.SessionManager
	guard    *utils.LoginGuard
}

// NewAuthController creates a new AuthController instance. guard may be nil.
func NewAuthController(db *gorm.DB, sessions *utils.SessionManager, guard *utils.LoginGuard) *AuthController {
	return &AuthController{db: db, sessions: sessions, guard: guard}
}

type loginRequest struct {
	Username   string `form:"username" json:"username"`
	Password   string `form:"password" json:"password"`
	RememberMe string `form:"remember_me" json:"remember_me"`
}

func (r loginRequest) remember() bool {
	switch strings.ToLower(strings.TrimSpace(r.RememberMe)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// LoginPage renders the login form, or sends signed-in users home.
func (a *AuthController) LoginPage(ctx *gin.Context) {
	if _, ok := middleware.CurrentSession(ctx); ok {
		ctx.Redirect(http.StatusFound, "/")
		return
	}
	utils.Render(ctx, http.StatusOK, "login.html", page(ctx, "Đăng nhập", nil))
}

// Login verifies credentials against active accounts and issues the session cookie.
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBind(&req); err != nil {
		a.loginFailed(ctx, http.StatusBadRequest, req.Username)
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		a.loginFailed(ctx, http.StatusBadRequest, username)
		return
	}
	ip := ctx.ClientIP()
	if a.guard.Locked(username, ip) {
		utils.Sugar.Infow("login locked", "username", username, "ip", ip)
		utils.Error(ctx, http.StatusTooManyRequests, 42902, msgLoginLocked)
		return
	}

	var user models.User
	err := a.db.Where("username = ? AND status = ?", username, models.StatusActive).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Sugar.Errorw("login lookup failed", "username", username, "error", err)
			utils.Error(ctx, http.StatusInternalServerError, 50010, "Lỗi hệ thống, vui lòng thử lại sau!")
			return
		}
		// Same bcrypt cost as a real check so unknown names are not faster.
		utils.BurnPasswordCheck(req.Password)
		a.guard.Fail(username, ip)
		a.loginFailed(ctx, http.StatusUnauthorized, username)
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		if a.guard.Fail(username, ip) {
			utils.Sugar.Warnw("login locked after repeated failures", "username", username, "ip", ip)
		}
		a.loginFailed(ctx, http.StatusUnauthorized, username)
		return
	}
	a.guard.Reset(username, ip)

	claims := utils.SessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		FullName: user.FullName,
		Avatar:   user.Avatar,
		CanPost:  user.CanPost,
	}
	if _, err := a.sessions.Issue(ctx, claims, req.remember()); err != nil {
		utils.Sugar.Errorw("issue session failed", "user_id", user.ID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50011, "Lỗi hệ thống, vui lòng thử lại sau!")
		return
	}
	utils.Sugar.Infow("user logged in", "user_id", user.ID, "username", user.Username, "ip", ip)
	utils.Redirect(ctx, "/", gin.H{"user": claims})
}

func (a *AuthController) loginFailed(ctx *gin.Context, status int, username string) {
	utils.Sugar.Infow("login rejected", "username", username, "ip", ctx.ClientIP())
	if utils.WantsJSON(ctx) {
		utils.Respond(ctx, status, 40100, msgBadCredentials, nil)
		return
	}
	ctx.HTML(status, "login.html", page(ctx, "Đăng nhập", gin.H{
		"Error":    msgBadCredentials,
		"Username": username,
	}))
}

// Logout revokes the session token and returns to the login page.
func (a *AuthController) Logout(ctx *gin.Context) {
	a.sessions.Destroy(ctx)
	utils.Redirect(ctx, "/login", nil)
}
