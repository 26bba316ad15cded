package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sessiondeck/folderdeck/internal/capability"
	"github.com/sessiondeck/folderdeck/internal/folders"
	"github.com/sessiondeck/folderdeck/internal/handlers"
	"github.com/sessiondeck/folderdeck/internal/middleware"
	"github.com/sessiondeck/folderdeck/internal/realtime"
)

// NewRouter builds the Gin engine, wires middleware and registers the
// folder routes. The realtime hub is optional; when present its websocket
// endpoint mounts under /ws.
func NewRouter(store *folders.Store, registry capability.SessionRegistry, hub *realtime.Hub) (*gin.Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("folder store must be provided")
	}
	if registry == nil {
		return nil, fmt.Errorf("session registry must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	folderHandler := handlers.NewFolderHandler(store, registry)

	api := r.Group("/api")

	foldersGroup := api.Group("/folders")
	{
		foldersGroup.GET("", folderHandler.List)
		foldersGroup.GET("/tree", folderHandler.Tree)
		foldersGroup.GET("/tabs", folderHandler.Tabs)
		foldersGroup.POST("", folderHandler.Create)
		foldersGroup.PATCH("/:id", folderHandler.Update)
		foldersGroup.DELETE("/:id", folderHandler.Delete)
		foldersGroup.PUT("/:id/expanded", folderHandler.SetExpanded)
	}

	sessions := api.Group("/sessions")
	{
		sessions.GET("", folderHandler.Sessions)
		sessions.PUT("", folderHandler.SyncSessions)
		sessions.PUT("/:id/folder", folderHandler.MoveSession)
	}

	if hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			hub.Serve(c.Writer, c.Request)
		})
	}

	// Prometheus metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r, nil
}
