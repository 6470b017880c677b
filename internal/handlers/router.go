package handlers

import (
	"net/http"
	"time"

	"github.com/jaybesin/logistics-console/internal/auth"
	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/middleware"
	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/workflow"
)

// rateWindow is the window RateLimit counts requests over.
const rateWindow = time.Minute

// Deps is everything the router needs.
type Deps struct {
	Store      db.Store
	Users      db.UserCollection
	View       View
	Controller *workflow.Controller
	Auth       *auth.Service
	// RateLimit is requests per minute per client on public routes. Zero disables it.
	RateLimit int
	Now       func() time.Time
}

// NewRouter wires every route. Public routes are rate limited. Viewers may
// read shipments, containers, messages and agents; every other /api/admin
// route requires an admin and user management requires a super admin.
func NewRouter(d Deps) http.Handler {
	public := NewPublicHandler(d.Store, d.View, d.Controller)
	admin := NewAdminHandler(d.Store, d.Controller)
	docs := NewDocumentHandler(d.Store, d.Now)
	users := NewAuthHandler(d.Auth, d.Users)

	authMW := middleware.NewAuthMiddleware(d.Auth)
	limited := func(h http.HandlerFunc) http.Handler { return h }
	if d.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(d.RateLimit, rateWindow)
		limited = func(h http.HandlerFunc) http.Handler { return limiter.Limit(h) }
	}
	signedIn := func(h http.HandlerFunc) http.Handler { return authMW.Authenticate(h) }
	withRole := func(role models.Role) func(http.HandlerFunc) http.Handler {
		require := authMW.RequireRole(role)
		return func(h http.HandlerFunc) http.Handler { return authMW.Authenticate(require(h)) }
	}
	adminOnly := withRole(models.RoleAdmin)
	can := func(action string) func(http.HandlerFunc) http.Handler {
		require := authMW.RequirePermission(action)
		return func(h http.HandlerFunc) http.Handler { return authMW.Authenticate(require(h)) }
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", public.Health)
	mux.Handle("GET /api/track", limited(public.Track))
	mux.Handle("GET /api/stages", limited(public.Stages))
	mux.Handle("GET /api/quote/sea", limited(public.SeaQuote))
	mux.Handle("GET /api/quote/air", limited(public.AirQuote))
	mux.Handle("GET /api/products", limited(public.Products))
	mux.Handle("GET /api/vehicles", limited(public.Vehicles))
	mux.Handle("GET /api/categories", limited(public.Categories))
	mux.Handle("POST /api/messages", limited(public.PostMessage))
	mux.Handle("POST /api/agents", limited(public.PostAgent))
	mux.Handle("POST /api/checkout", limited(public.Checkout))

	mux.Handle("POST /api/auth/login", limited(users.Login))
	mux.Handle("GET /api/auth/profile", signedIn(users.GetProfile))
	mux.Handle("POST /api/auth/change-password", signedIn(users.ChangePassword))

	mux.Handle("GET /api/admin/shipments", can(models.PermViewShipments)(admin.ListShipments))
	mux.Handle("POST /api/admin/shipments", adminOnly(admin.CreateShipment))
	mux.Handle("POST /api/admin/shipments/bulk-status", adminOnly(admin.BulkStatus))
	mux.Handle("GET /api/admin/shipments/{id}", can(models.PermViewShipments)(admin.GetShipment))
	mux.Handle("PUT /api/admin/shipments/{id}", adminOnly(admin.UpdateShipment))
	mux.Handle("DELETE /api/admin/shipments/{id}", adminOnly(admin.DeleteShipment))
	mux.Handle("PUT /api/admin/shipments/{id}/status", adminOnly(admin.UpdateShipmentStatus))
	mux.Handle("GET /api/admin/shipments/{id}/whatsapp", adminOnly(admin.ShipmentWhatsApp))

	mux.Handle("GET /api/admin/forms/{type}", adminOnly(admin.OpenForm))
	mux.Handle("POST /api/admin/forms", adminOnly(admin.SubmitForm))

	mux.Handle("GET /api/admin/containers", can(models.PermViewContainers)(admin.ListContainers))
	mux.Handle("GET /api/admin/containers/{id}", can(models.PermViewContainers)(admin.GetContainer))

	mux.Handle("GET /api/admin/documents/shipments/{file}", adminOnly(docs.ShipmentPDF))
	mux.Handle("GET /api/admin/documents/containers/{file}", adminOnly(docs.ContainerPDF))
	mux.Handle("GET /api/admin/documents/manual", adminOnly(docs.NewManual))
	mux.Handle("POST /api/admin/documents/manual", adminOnly(docs.ManualPDF))

	mux.Handle("GET /api/admin/settings", adminOnly(admin.GetSettings))
	mux.Handle("PUT /api/admin/settings", adminOnly(admin.UpdateSettings))

	mux.Handle("GET /api/admin/products", adminOnly(admin.ListProducts))
	mux.Handle("POST /api/admin/products", adminOnly(admin.CreateProduct))
	mux.Handle("PUT /api/admin/products/{id}", adminOnly(admin.UpdateProduct))
	mux.Handle("DELETE /api/admin/products/{id}", adminOnly(admin.DeleteProduct))

	mux.Handle("GET /api/admin/vehicles", adminOnly(admin.ListVehicles))
	mux.Handle("POST /api/admin/vehicles", adminOnly(admin.CreateVehicle))
	mux.Handle("PUT /api/admin/vehicles/{id}", adminOnly(admin.UpdateVehicle))
	mux.Handle("DELETE /api/admin/vehicles/{id}", adminOnly(admin.DeleteVehicle))

	mux.Handle("GET /api/admin/categories", adminOnly(admin.ListCategories))
	mux.Handle("POST /api/admin/categories", adminOnly(admin.CreateCategory))
	mux.Handle("DELETE /api/admin/categories/{id}", adminOnly(admin.DeleteCategory))

	mux.Handle("GET /api/admin/stats", adminOnly(admin.GetStats))
	mux.Handle("GET /api/admin/messages", can(models.PermViewMessages)(admin.ListMessages))
	mux.Handle("PUT /api/admin/messages/{id}/read", adminOnly(admin.MarkMessageRead))
	mux.Handle("GET /api/admin/agents", can(models.PermViewAgents)(admin.ListAgents))

	mux.Handle("GET /api/admin/users", can(models.PermManageUsers)(users.ListUsers))
	mux.Handle("POST /api/admin/users", can(models.PermManageUsers)(users.CreateUser))
	mux.Handle("PUT /api/admin/users/{id}", can(models.PermManageUsers)(users.UpdateUser))
	mux.Handle("DELETE /api/admin/users/{id}", can(models.PermManageUsers)(users.DeleteUser))

	return middleware.RequestLogger(middleware.Recover(mux))
}
