// Package jobs runs the portal's scheduled maintenance.
package jobs

import (
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/cppla/docportal/config"
	"github.com/cppla/docportal/storage"
	"github.com/cppla/docportal/utils"
)

type Manager struct {
	engine *cron.Cron
	jobs   []scheduled
}

type scheduled struct {
	name string
	spec string
	job  cron.Job
}

// NewManager builds the cron engine with every maintenance job. Specs use the
// six-field format with seconds, or descriptors such as "@daily".
func NewManager(cfg config.JobsConfig, driver string, db *gorm.DB, store *storage.Manager) *Manager {
	m := &Manager{
		engine: cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLogger{}))),
	}
	m.add("banner-expiry", cfg.BannerExpirySpec, NewBannerExpiryJob(db))
	m.add("temp-cleanup", cfg.TempCleanupSpec, NewTempCleanupJob(store, cfg.TempMaxAgeMinutes))
	if driver == "sqlite" {
		m.add("db-optimize", cfg.DBOptimizeSpec, NewDBOptimizeJob(db))
	}
	return m
}

func (m *Manager) add(name, spec string, job cron.Job) {
	if spec == "" {
		return
	}
	m.jobs = append(m.jobs, scheduled{name: name, spec: spec, job: job})
}

// RegisterJobs schedules every configured job.
func (m *Manager) RegisterJobs() error {
	for _, s := range m.jobs {
		if _, err := m.engine.AddJob(s.spec, s.job); err != nil {
			return errors.Wrapf(err, "schedule %s (%s)", s.name, s.spec)
		}
		utils.Sugar.Infow("cron job registered", "job", s.name, "spec", s.spec)
	}
	return nil
}

func (m *Manager) Start() {
	utils.Sugar.Info("cron engine started")
	m.engine.Start()
}

// Stop waits for running jobs to finish.
func (m *Manager) Stop() {
	<-m.engine.Stop().Done()
	utils.Sugar.Info("cron engine stopped")
}

// cronLogger adapts the global zap logger to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	utils.Sugar.Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	utils.Sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
