// Package httpapi exposes the application over a JSON REST API plus a
// per-room websocket. Handlers stay thin: bind, call the service, map the
// error, encode the result.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ptdat/roomledger/internal/auth"
	"github.com/ptdat/roomledger/internal/middleware"
	"github.com/ptdat/roomledger/internal/notify"
	"github.com/ptdat/roomledger/internal/service"
)

// Server bundles the services behind the HTTP surface.
type Server struct {
	auth     *service.AuthService
	rooms    *service.RoomService
	invoices *service.InvoiceService
	presence *service.PresenceService
	hub      *notify.Hub
}

// NewServer creates the HTTP server facade.
func NewServer(authSvc *service.AuthService, rooms *service.RoomService, invoices *service.InvoiceService, presence *service.PresenceService, hub *notify.Hub) *Server {
	return &Server{
		auth:     authSvc,
		rooms:    rooms,
		invoices: invoices,
		presence: presence,
		hub:      hub,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router(jwtManager *auth.JWTManager, corsOrigin string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimiter(300, time.Minute))

	corsConfig := cors.DefaultConfig()
	if corsOrigin == "" || corsOrigin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{corsOrigin}
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(jwtManager))

	protected.GET("/me", s.currentUser)

	protected.POST("/rooms", s.createRoom)
	protected.GET("/rooms/:room_id", s.getRoom)
	protected.DELETE("/rooms/:room_id", s.deleteRoom)
	protected.POST("/rooms/:room_id/join", s.joinRoom)
	protected.POST("/rooms/:room_id/leave", s.leaveRoom)
	protected.DELETE("/rooms/:room_id/members/:user_id", s.kickMember)
	protected.PUT("/rooms/:room_id/members/:user_id/role", s.changeRole)

	protected.POST("/rooms/:room_id/invoices", s.createInvoice)
	protected.GET("/rooms/:room_id/invoices", s.listInvoices)
	protected.GET("/invoices/:invoice_id", s.getInvoice)
	protected.DELETE("/invoices/:invoice_id", s.deleteInvoice)
	protected.POST("/invoices/:invoice_id/pay", s.applyPayment)

	protected.GET("/rooms/:room_id/presence/:month", s.getPresence)
	protected.PUT("/rooms/:room_id/presence/:month/days/:day", s.setPresenceDay)
	protected.POST("/rooms/:room_id/presence/:month/days/:day/toggle", s.togglePresenceDay)

	protected.GET("/rooms/:room_id/ws", s.subscribe)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
