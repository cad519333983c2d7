package cmd

import (
	"fmt"

	"github.com/anoiana/soa-version1/config"
	"github.com/anoiana/soa-version1/database"
	"github.com/anoiana/soa-version1/services"
	"github.com/anoiana/soa-version1/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// app is the wiring shared by the commands: configuration, logger, database
// and clock.
type app struct {
	cfg   *config.Config
	log   *logrus.Logger
	db    *gorm.DB
	clock services.Clock
}

func newApp(opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := config.InitDB(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, log); err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db, clock: services.NewClock(loc)}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
