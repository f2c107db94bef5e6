package routes

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/docportal/config"
	"github.com/cppla/docportal/controllers"
	"github.com/cppla/docportal/middleware"
	"github.com/cppla/docportal/storage"
	"github.com/cppla/docportal/utils"
	"github.com/cppla/docportal/web"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg *config.AppConfig, db *gorm.DB, store *storage.Manager, sessions *utils.SessionManager) (*gin.Engine, error) {
	switch strings.ToLower(cfg.App.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file; fall back to the app logger.
	accessLog := utils.Logger
	if cfg.Log.GinPath != "" {
		if gl, err := utils.NewRollingFileLogger(cfg.Log.GinPath, cfg.Log); err == nil {
			accessLog = gl
		} else {
			utils.Sugar.Warnw("gin access log unavailable", "path", cfg.Log.GinPath, "error", err)
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, false))

	// Pages are served from the portal's own origin; CORS is only for listed origins.
	if len(cfg.App.AllowedOrigins) > 0 {
		r.Use(cors.New(corsConfig(cfg.App.AllowedOrigins)))
	}

	if cfg.App.MetricsEnabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", middleware.MetricsHandler())
	}
	r.Use(middleware.LoadSession(sessions))

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", web.Static())
	r.MaxMultipartMemory = 32 << 20

	r.GET("/health", func(ctx *gin.Context) {
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
			utils.Respond(ctx, http.StatusServiceUnavailable, 50300, "database unavailable", nil)
			return
		}
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	guard := utils.NewLoginGuard(cfg.App.LoginMaxFailures, 15*time.Minute, time.Duration(cfg.App.LoginLockMinutes)*time.Minute)
	authController := controllers.NewAuthController(db, sessions, guard)
	postController := controllers.NewPostController(db, store, cfg.App)
	fileController := controllers.NewFileController(db, store)
	statsController := controllers.NewStatsController(db)
	userController := controllers.NewUserController(db)
	announcementController := controllers.NewAnnouncementController(db)
	bannerController := controllers.NewBannerController(db, store)
	rateController := controllers.NewRateController(db, store)
	deletedController := controllers.NewDeletedFileController(db, store)

	loginLimiter := middleware.NewRateLimiter(cfg.App.RateLimitPerMinute)
	r.GET("/login", authController.LoginPage)
	r.POST("/login", loginLimiter.Handler(), authController.Login)
	r.POST("/logout", authController.Logout)

	protected := r.Group("")
	protected.Use(middleware.RequireAuth())
	protected.GET("/", postController.Home)
	protected.GET("/search", postController.Search)
	protected.GET("/post/:id", postController.ViewPost)
	protected.GET("/history/:id", postController.History)
	protected.GET("/edit/:id", postController.EditPage)
	protected.POST("/edit/:id", postController.UpdatePost)
	protected.POST("/delete/:id", postController.DeletePost)
	protected.GET("/download/:id", fileController.DownloadFirst)
	protected.GET("/download/file/:fileId", fileController.DownloadFile)
	protected.GET("/banners/image/:id", bannerController.Image)

	uploads := protected.Group("")
	uploads.Use(middleware.RequireCanPost(db))
	uploads.GET("/upload", postController.UploadPage)
	uploads.POST("/upload", postController.CreatePost)

	admin := r.Group("")
	admin.Use(middleware.RequireAuth(), middleware.RequireAdmin())
	admin.GET("/admin", statsController.Dashboard)
	admin.GET("/admin/users", userController.ListUsers)
	admin.POST("/users/add", userController.AddUser)
	admin.POST("/users/toggle/:id", userController.ToggleStatus)
	admin.POST("/users/can-post/:id", userController.ToggleCanPost)
	admin.GET("/admin/announcement", announcementController.Show)
	admin.POST("/admin/announcement", announcementController.Update)
	admin.GET("/admin/banners", bannerController.List)
	admin.POST("/admin/banners/add", bannerController.Add)
	admin.POST("/admin/banners/edit/:id", bannerController.Edit)
	admin.POST("/admin/banners/delete/:id", bannerController.Delete)
	admin.GET("/admin/exchange-rates", rateController.List)
	admin.POST("/admin/exchange-rates/upload", rateController.Upload)
	admin.POST("/admin/exchange-rates/toggle/:id", rateController.Toggle)
	admin.POST("/admin/exchange-rates/delete/:id", rateController.Delete)
	admin.POST("/admin/exchange-rates/clear", rateController.Clear)
	admin.POST("/admin/exchange-rates/edit/:id", rateController.Edit)
	admin.GET("/admin/deleted", deletedController.List)
	admin.GET("/admin/deleted/download/:fileName", deletedController.Download)
	admin.DELETE("/admin/deleted/permanent/:fileName", deletedController.Purge)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/static/") {
			ctx.String(http.StatusNotFound, "static asset not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "Trang không tồn tại!")
	})

	return r, nil
}

// corsConfig lets the listed origins call in with the session cookie. A "*"
// entry opens the portal to every origin without credentials.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", utils.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
