package commands

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/internal/config"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/board"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/schedule"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/services"
	"github.com/typeWolffo/zpi-wsiz/pkg/db"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env       string
	Cfg       *config.Config
	Location  *time.Location
	Database  db.Database
	Projector schedule.SchedulerProjector
	// Notifier forwards settled mutations beyond the console, nil when events are disabled
	Notifier board.Notifier
	Logger   *zap.Logger
	Ctx      context.Context
	Out      io.Writer
	Now      func() time.Time
}

// day resolves a --day flag value against the configured working days
func (app *AppContext) day(value string) (time.Time, error) {
	now := time.Now
	if app.Now != nil {
		now = app.Now
	}
	return services.ParseDay(app.Cfg, value, now(), app.Location)
}
