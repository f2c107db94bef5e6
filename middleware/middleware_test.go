package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/docportal/config"
	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/utils"
)

var sessions = utils.NewSessionManager(config.SessionConfig{Secret: "mw-secret", CookieName: "sid"})

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, "silent")
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoadSession(sessions))
	handlers = append(handlers, func(ctx *gin.Context) {
		claims, _ := CurrentSession(ctx)
		ctx.JSON(http.StatusOK, gin.H{"user": claims.Username})
	})
	r.GET("/x", handlers...)
	return r
}

func request(t *testing.T, r http.Handler, claims *utils.SessionClaims) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Accept", "application/json")
	if claims != nil {
		token, err := sessions.Sign(*claims, time.Hour)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "sid", Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.JSONResponse {
	t.Helper()
	var resp utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRequireAuth(t *testing.T) {
	r := newEngine(RequireAuth())

	w := request(t, r, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = request(t, r, &utils.SessionClaims{UserID: 1, Username: "an"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"an"}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	r := newEngine(RequireAuth(), RequireAdmin())

	w := request(t, r, &utils.SessionClaims{UserID: 2, Username: "an", Role: models.RoleUser})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 40300, decode(t, w).Code)

	w = request(t, r, &utils.SessionClaims{UserID: 1, Username: "admin", Role: models.RoleAdmin})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireCanPostReadsDatabase(t *testing.T) {
	db := openTestDB(t)
	user := models.User{Username: "binh", PasswordHash: "x", FullName: "Bình", CanPost: true}
	require.NoError(t, db.Create(&user).Error)
	r := newEngine(RequireAuth(), RequireCanPost(db))

	// the session claims a stale flag; the database wins both ways
	claims := &utils.SessionClaims{UserID: user.ID, Username: "binh", CanPost: false}
	assert.Equal(t, http.StatusOK, request(t, r, claims).Code)

	require.NoError(t, db.Model(&user).Update("can_post", false).Error)
	claims.CanPost = true
	w := request(t, r, claims)
	assert.Equal(t, http.StatusForbidden, w.Code)
	resp := decode(t, w)
	assert.Equal(t, 40301, resp.Code)
	assert.Equal(t, msgNoPostPermission, resp.Message)

	// admins are not exempt
	admin := &utils.SessionClaims{UserID: 999, Username: "ghost", Role: models.RoleAdmin, CanPost: true}
	assert.Equal(t, http.StatusForbidden, request(t, r, admin).Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(4)
	r := newEngine(rl.Handler())

	claims := &utils.SessionClaims{UserID: 1, Username: "an"}
	assert.Equal(t, http.StatusOK, request(t, r, claims).Code)
	assert.Equal(t, http.StatusOK, request(t, r, claims).Code)

	w := request(t, r, claims)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 42901, decode(t, w).Code)

	assert.True(t, rl.allow("10.1.1.1"))
}

func TestMetricsRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/ok", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	r.GET("/metrics", MetricsHandler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `portal_http_requests_total{method="GET",route="/ok",status="204"}`)
}
