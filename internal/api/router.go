package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/trznica/internal/audit"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/service"
)

// Config carries the router's runtime settings.
type Config struct {
	JWTSecret string

	// Square webhook subscription settings. Sync endpoints answer 503
	// when SquareEnabled is false.
	SquareEnabled         bool
	SquareSignatureKey    string
	SquareNotificationURL string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, auditLog *audit.Log, cfg Config) http.Handler {
	mux := http.NewServeMux()

	inventorySvc := &service.Inventory{DB: db, Audit: auditLog}
	listingsSvc := &service.Listings{DB: db, Audit: auditLog}
	requestsSvc := &service.Requests{DB: db, Audit: auditLog}
	squareSvc := &service.Square{DB: db, Audit: auditLog, Enabled: cfg.SquareEnabled}

	authHandler := &AuthHandler{DB: db, JWTSecret: cfg.JWTSecret}
	usersHandler := &UsersHandler{DB: db}
	inventoryHandler := &InventoryHandler{DB: db, Inventory: inventorySvc}
	listingsHandler := &ListingsHandler{DB: db, Listings: listingsSvc, Inventory: inventorySvc, Square: squareSvc}
	requestsHandler := &RequestsHandler{Requests: requestsSvc}
	webhookHandler := &WebhookHandler{
		Inventory:       inventorySvc,
		Square:          squareSvc,
		SignatureKey:    cfg.SquareSignatureKey,
		NotificationURL: cfg.SquareNotificationURL,
	}

	authMW := AuthMiddleware(cfg.JWTSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: login and the Square webhook (signature-checked).
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/webhooks/square", webhookHandler.Handle)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Inventory. Row-level permissions live in the service layer.
	mux.Handle("GET /api/inventory", authMW(http.HandlerFunc(inventoryHandler.List)))
	mux.Handle("GET /api/inventory/reorder", authMW(http.HandlerFunc(inventoryHandler.Reorder)))
	mux.Handle("GET /api/inventory/{sku}", authMW(http.HandlerFunc(inventoryHandler.Get)))
	mux.Handle("POST /api/inventory/adjust", authMW(http.HandlerFunc(inventoryHandler.Adjust)))
	mux.Handle("GET /api/inventory/{sku}/transactions", authMW(http.HandlerFunc(inventoryHandler.Transactions)))

	// Listings.
	mux.Handle("POST /api/listings", authMW(http.HandlerFunc(listingsHandler.Create)))
	mux.Handle("GET /api/listings", authMW(http.HandlerFunc(listingsHandler.List)))
	mux.Handle("GET /api/listings/sync-state", authMW(http.HandlerFunc(listingsHandler.SyncState)))
	mux.Handle("GET /api/listings/{id}", authMW(http.HandlerFunc(listingsHandler.Get)))
	mux.Handle("PUT /api/listings/{id}/status", authMW(http.HandlerFunc(listingsHandler.UpdateStatus)))
	mux.Handle("DELETE /api/listings/{id}", authMW(http.HandlerFunc(listingsHandler.Delete)))
	mux.Handle("PUT /api/listings/{id}/image", authMW(http.HandlerFunc(listingsHandler.UploadImage)))
	mux.Handle("GET /api/listings/{id}/image", authMW(http.HandlerFunc(listingsHandler.GetImage)))
	mux.Handle("POST /api/listings/{id}/reserve", authMW(http.HandlerFunc(listingsHandler.Reserve)))
	mux.Handle("POST /api/listings/{id}/release", authMW(http.HandlerFunc(listingsHandler.Release)))
	mux.Handle("POST /api/listings/{id}/capture", authMW(http.HandlerFunc(listingsHandler.Capture)))
	mux.Handle("POST /api/listings/{id}/sync", authMW(http.HandlerFunc(listingsHandler.Sync)))

	// Moderation queue.
	mux.Handle("GET /api/requests", authMW(http.HandlerFunc(requestsHandler.List)))
	mux.Handle("POST /api/requests/{listing}", authMW(http.HandlerFunc(requestsHandler.Submit)))
	mux.Handle("POST /api/requests/{listing}/approve", authMW(requireAdmin(http.HandlerFunc(requestsHandler.Approve))))
	mux.Handle("POST /api/requests/{listing}/reject", authMW(requireAdmin(http.HandlerFunc(requestsHandler.Reject))))
	mux.Handle("POST /api/requests/{listing}/cancel", authMW(http.HandlerFunc(requestsHandler.Cancel)))

	return mux
}
