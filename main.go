package main

import (
	"flag"
	"log"

	"github.com/cppla/docportal/config"
	"github.com/cppla/docportal/jobs"
	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/routes"
	"github.com/cppla/docportal/seed"
	"github.com/cppla/docportal/storage"
	"github.com/cppla/docportal/utils"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg.Log); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	if rc := utils.InitRedis(cfg.Redis); rc != nil {
		defer rc.Close()
	}

	db, err := config.InitDatabase(cfg, models.All()...)
	if err != nil {
		utils.Sugar.Fatalw("database init failed", "driver", cfg.Database.Driver, "error", err)
	}
	if err := seed.Bootstrap(db, cfg.Admin); err != nil {
		utils.Sugar.Fatalw("bootstrap seed failed", "error", err)
	}

	store, err := storage.NewManager(cfg.Storage)
	if err != nil {
		utils.Sugar.Fatalw("storage init failed", "error", err)
	}

	r, err := routes.SetupRouter(cfg, db, store, utils.NewSessionManager(cfg.Session))
	if err != nil {
		utils.Sugar.Fatalw("router init failed", "error", err)
	}

	var shutdown []func()
	if cfg.Jobs.Enabled {
		scheduler := jobs.NewManager(cfg.Jobs, cfg.Database.Driver, db, store)
		if err := scheduler.RegisterJobs(); err != nil {
			utils.Sugar.Fatalw("cron init failed", "error", err)
		}
		scheduler.Start()
		shutdown = append(shutdown, scheduler.Stop)
	}
	shutdown = append(shutdown, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.App.Port)
	if err := utils.GraceServer(":"+cfg.App.Port, r, shutdown...); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
