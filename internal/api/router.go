package api

import (
	"github.com/datallboy/gonews/internal/api/controllers"
	"github.com/datallboy/gonews/internal/app"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

func RegisterRoutes(e *echo.Echo, app *app.Context) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	newsCtrl := &controllers.NewsController{App: app}

	// Live reads against the news server
	e.GET("/groups", newsCtrl.HandleList)
	e.GET("/groups/new", newsCtrl.HandleNewGroups)
	e.GET("/groups/:name", newsCtrl.HandleGroup)
	e.GET("/groups/:name/:kind/:ref", newsCtrl.HandleRetrieve)

	// The archive is optional; without a store only live reads are served
	if app.Store == nil {
		return
	}

	archiveCtrl := &controllers.ArchiveController{App: app}

	e.POST("/groups/:name/archive/:ref", archiveCtrl.HandleArchive)
	e.GET("/archive", archiveCtrl.HandleListArchive)
	e.GET("/archive/message/:msgid", archiveCtrl.HandleGetByMessageID)
	e.GET("/archive/:id", archiveCtrl.HandleGet)
	e.GET("/archive/:id/body", archiveCtrl.HandleBody)
}
