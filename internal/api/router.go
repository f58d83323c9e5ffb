package api

import (
	"net/http"

	"github.com/erazemk/auditmagic/internal/inventory"
	"github.com/erazemk/auditmagic/internal/model"
)

// NewRouter creates the API router with all endpoints registered, plus the
// unauthenticated /metrics and /healthz endpoints.
func NewRouter(svc *inventory.Service, jwtSecret string) http.Handler {
	mux := http.NewServeMux()
	db := svc.DB

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	typesHandler := &TypesHandler{Svc: svc}
	itemsHandler := &ItemsHandler{Svc: svc}
	searchHandler := &SearchHandler{Svc: svc}
	txHandler := &TransactionsHandler{Svc: svc}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	read := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	write := func(h http.HandlerFunc) http.Handler { return authMW(requireManager(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if svc.Metrics != nil {
		mux.Handle("GET /metrics", svc.Metrics.Handler())
	}

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", read(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", read(authHandler.Logout))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Item types: read (all roles), write (manager+).
	mux.Handle("GET /api/types", read(typesHandler.List))
	mux.Handle("POST /api/types", write(typesHandler.Create))
	mux.Handle("PUT /api/types", write(typesHandler.Ensure))
	mux.Handle("GET /api/types/lookup", read(typesHandler.Lookup))
	mux.Handle("GET /api/types/{id}", read(typesHandler.Get))
	mux.Handle("PUT /api/types/{id}", write(typesHandler.Update))
	mux.Handle("DELETE /api/types/{id}", write(typesHandler.Delete))
	mux.Handle("GET /api/types/{id}/image", read(typesHandler.GetImage))
	mux.Handle("PUT /api/types/{id}/image", write(typesHandler.UploadImage))
	mux.Handle("GET /api/types/{id}/serials", read(typesHandler.Serials))
	mux.Handle("POST /api/types/{id}/serials", write(typesHandler.CreateSerial))
	mux.Handle("GET /api/types/{id}/transactions", read(typesHandler.Transactions))

	// Items: read (all roles), write (manager+).
	mux.Handle("GET /api/items", read(itemsHandler.List))
	mux.Handle("GET /api/items/grouped", read(itemsHandler.Grouped))
	mux.Handle("POST /api/items", write(itemsHandler.Create))
	mux.Handle("POST /api/items/remove-serials", write(itemsHandler.RemoveSerials))
	mux.Handle("GET /api/items/by-serial/{serial}", read(itemsHandler.BySerial))
	mux.Handle("GET /api/items/{id}", read(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", write(itemsHandler.Edit))
	mux.Handle("PATCH /api/items/{id}", write(itemsHandler.Patch))
	mux.Handle("DELETE /api/items/{id}", write(itemsHandler.Delete))
	mux.Handle("POST /api/items/{id}/add", write(itemsHandler.AddQuantity))
	mux.Handle("POST /api/items/{id}/remove", write(itemsHandler.RemoveQuantity))

	// Search (all roles). The history switch is a manager setting.
	mux.Handle("GET /api/search", read(searchHandler.Search))
	mux.Handle("GET /api/search/autocomplete", read(searchHandler.Autocomplete))
	mux.Handle("GET /api/autocomplete/types", read(searchHandler.TypeNames))
	mux.Handle("GET /api/autocomplete/subtypes", read(searchHandler.SubTypes))
	mux.Handle("GET /api/search/history", read(searchHandler.History))
	mux.Handle("DELETE /api/search/history", read(searchHandler.ClearHistory))
	mux.Handle("GET /api/search/history/setting", read(searchHandler.HistorySetting))
	mux.Handle("PUT /api/search/history/setting", write(searchHandler.SetHistorySetting))

	// Transactions (all roles).
	mux.Handle("GET /api/transactions", read(txHandler.List))
	mux.Handle("GET /api/transactions/export", read(txHandler.Export))

	return mux
}
