package main

import (
	"net/http"

	"github.com/diewo77/go-albaranes/auth"
	"github.com/diewo77/go-albaranes/internal/config"
	"github.com/diewo77/go-albaranes/internal/handlers"
	"github.com/diewo77/go-albaranes/internal/mail"
	"github.com/diewo77/go-albaranes/internal/models"
	"github.com/diewo77/go-albaranes/internal/pdf"
	"github.com/diewo77/go-albaranes/internal/policy"
	"github.com/diewo77/go-albaranes/internal/services"
	"github.com/diewo77/go-albaranes/internal/upload"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux *http.ServeMux
	db  *gorm.DB
}

// NewApp wires services and handlers and configures every route.
func NewApp(db *gorm.DB, cfg *config.Config, sender mail.Sender, uploader upload.Uploader) *App {
	app := &App{
		mux: http.NewServeMux(),
		db:  db,
	}

	companies := services.NewCompanyService(db)
	notes := services.NewNoteService(db, pdf.NewRenderer(), uploader)

	ah := handlers.NewAuthHandler(db, sender)
	uh := handlers.NewUserHandler(db, sender)
	comph := handlers.NewCompanyHandler(companies)
	ch := handlers.NewClientHandler(db)
	ph := handlers.NewProjectHandler(db)
	dh := handlers.NewDeliveryNoteHandler(notes)
	sh := handlers.NewStorageHandler(db, uploader)

	app.setupRoutes(cfg, ah, uh, comph, ch, ph, dh, sh)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes(
	cfg *config.Config,
	ah *handlers.AuthHandler,
	uh *handlers.UserHandler,
	comph *handlers.CompanyHandler,
	ch *handlers.ClientHandler,
	ph *handlers.ProjectHandler,
	dh *handlers.DeliveryNoteHandler,
	sh *handlers.StorageHandler,
) {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("POST /api/auth/register", ah.Register)
	a.mux.HandleFunc("POST /api/auth/login", ah.Login)
	// Verify parses its own token: it takes the verification-scoped token
	// that the access middleware rejects.
	a.mux.HandleFunc("POST /api/auth/verify", ah.Verify)

	a.mux.HandleFunc("POST /api/user/request-reset", uh.RequestReset)
	a.mux.HandleFunc("POST /api/user/reset-password", uh.ResetPassword)

	// ─────────────────────────────────────────────────────────────────────────
	// Authenticated routes
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /api/user", a.protect(http.HandlerFunc(uh.Get)))
	a.mux.Handle("GET /api/user/{id}", a.protect(http.HandlerFunc(uh.Get)))
	a.mux.Handle("PUT /api/user/register", a.protect(http.HandlerFunc(uh.Update)))
	a.mux.Handle("DELETE /api/user", a.protect(http.HandlerFunc(uh.Delete)))
	a.mux.Handle("POST /api/user/guest", a.protect(http.HandlerFunc(uh.RegisterGuest)))
	a.mux.Handle("PATCH /api/user/company", a.protect(http.HandlerFunc(comph.Register)))

	a.mux.Handle("GET /api/client", a.protect(http.HandlerFunc(ch.List)))
	a.mux.Handle("GET /api/client/archive", a.protect(http.HandlerFunc(ch.ListArchived)))
	a.mux.Handle("GET /api/client/{id}", a.protect(http.HandlerFunc(ch.Get)))

	a.mux.Handle("GET /api/project", a.protect(http.HandlerFunc(ph.List)))
	a.mux.Handle("GET /api/project/archive", a.protect(http.HandlerFunc(ph.ListArchived)))
	a.mux.Handle("GET /api/project/{id}", a.protect(http.HandlerFunc(ph.Get)))

	a.mux.Handle("GET /api/deliverynote", a.protect(http.HandlerFunc(dh.List)))
	a.mux.Handle("GET /api/deliverynote/{id}", a.protect(http.HandlerFunc(dh.Get)))
	a.mux.Handle("GET /api/deliverynote/pdf/{id}", a.protect(http.HandlerFunc(dh.GetPDF)))
	a.mux.Handle("PATCH /api/deliverynote/sign/{id}", a.protect(http.HandlerFunc(dh.UploadSignature)))

	// ─────────────────────────────────────────────────────────────────────────
	// Admin routes (mutations of company-level entities)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("DELETE /api/user/{id}", a.protectAdmin(http.HandlerFunc(uh.DeleteByAdmin)))
	a.mux.Handle("PATCH /api/user/restore/{id}", a.protectAdmin(http.HandlerFunc(uh.Restore)))
	a.mux.Handle("POST /api/user/logo", a.protectAdmin(http.HandlerFunc(sh.UploadLogo)))

	a.mux.Handle("PATCH /api/company", a.protectAdmin(http.HandlerFunc(comph.Update)))
	a.mux.Handle("DELETE /api/company", a.protectAdmin(http.HandlerFunc(comph.Delete)))

	a.mux.Handle("POST /api/client", a.protectAdmin(http.HandlerFunc(ch.Create)))
	a.mux.Handle("PUT /api/client/{id}", a.protectAdmin(http.HandlerFunc(ch.Update)))
	a.mux.Handle("DELETE /api/client/{id}", a.protectAdmin(http.HandlerFunc(ch.Delete)))
	a.mux.Handle("PATCH /api/client/restore/{id}", a.protectAdmin(http.HandlerFunc(ch.Restore)))

	a.mux.Handle("POST /api/project", a.protectAdmin(http.HandlerFunc(ph.Create)))
	a.mux.Handle("PUT /api/project/{id}", a.protectAdmin(http.HandlerFunc(ph.Update)))
	a.mux.Handle("DELETE /api/project/{id}", a.protectAdmin(http.HandlerFunc(ph.Delete)))
	a.mux.Handle("PATCH /api/project/restore/{id}", a.protectAdmin(http.HandlerFunc(ph.Restore)))

	a.mux.Handle("POST /api/deliverynote", a.protectAdmin(http.HandlerFunc(dh.Create)))
	a.mux.Handle("PUT /api/deliverynote/{id}", a.protectAdmin(http.HandlerFunc(dh.Update)))
	a.mux.Handle("DELETE /api/deliverynote/{id}", a.protectAdmin(http.HandlerFunc(dh.Delete)))
	a.mux.Handle("PATCH /api/deliverynote/restore/{id}", a.protectAdmin(http.HandlerFunc(dh.Restore)))

	// ─────────────────────────────────────────────────────────────────────────
	// Static files (uploaded signatures, PDFs, logos)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /storage/", http.StripPrefix("/storage/",
		http.FileServer(http.Dir(cfg.Storage.Dir))))
}

// protect requires a valid access token and resolves the current user.
func (a *App) protect(next http.Handler) http.Handler {
	return auth.RequireToken(policy.LoadUser(a.db)(next))
}

// protectAdmin additionally requires the admin role.
func (a *App) protectAdmin(next http.Handler) http.Handler {
	return a.protect(policy.RequireRole(models.RoleAdmin)(next))
}
