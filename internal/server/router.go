package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// NewRouter builds the relay's HTTP handler: the hub's routes, GET /health, CORS and request logging.
func NewRouter(hub *Hub, allowedOrigins []string, logger *log.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	for _, route := range hub.Routes() {
		engine.GET(route, gin.WrapH(hub))
	}
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": hub.Len()})
	})

	return Chain(engine, RequestLogger(logger), CORS(allowedOrigins))
}

// CORS allows cross-origin GETs from origins. An empty list allows any origin.
func CORS(origins []string) Middleware {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler
}
