package cli

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/stride/internal/app"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/google/uuid"
)

// ErrNoApp is returned by commands that need storage when none was set up.
var ErrNoApp = errors.New("stride is not connected to a database; check DATABASE_URL or SQLITE_PATH")

// App holds the CLI application dependencies.
type App struct {
	*app.Container

	CurrentUserID uuid.UUID
}

// NewApp wraps a container for the commands.
func NewApp(c *app.Container) *App {
	return &App{Container: c, CurrentUserID: DefaultUserID}
}

// SetCurrentUserID sets the user the commands act for.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

// Location returns the user's timezone, or UTC before constraints exist.
func (a *App) Location(ctx context.Context) *time.Location {
	c, err := a.GetConstraintsHandler.Handle(ctx, queries.GetConstraintsQuery{UserID: a.CurrentUserID})
	if err != nil {
		return time.UTC
	}
	return c.Location()
}

// FlushEvents drains the outbox once when events are delivered in process,
// so subscribers react before the command exits.
func (a *App) FlushEvents(ctx context.Context) {
	if a.Container == nil || !a.DeliversLocally() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	// Events written by the flush itself (a reallocation after a goal
	// change) need a second pass.
	for pass := 0; pass < 2; pass++ {
		if err := a.NewOutboxProcessor().ProcessOnce(ctx); err != nil {
			a.Logger.Warn("failed to deliver events", "error", err)
			return
		}
	}
}

var currentApp *App

// SetApp sets the application for CLI commands.
func SetApp(a *App) {
	currentApp = a
}

// GetApp returns the current application.
func GetApp() *App {
	return currentApp
}

// RequireApp returns the current application or ErrNoApp.
func RequireApp() (*App, error) {
	if currentApp == nil || currentApp.Container == nil {
		return nil, ErrNoApp
	}
	return currentApp, nil
}
