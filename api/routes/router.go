package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hptourism/homestay-portal/api/controllers"
	"github.com/hptourism/homestay-portal/api/middleware"
	"github.com/hptourism/homestay-portal/internal/actions"
	"github.com/hptourism/homestay-portal/internal/applications"
	authsvc "github.com/hptourism/homestay-portal/internal/auth"
	"github.com/hptourism/homestay-portal/internal/certificates"
	"github.com/hptourism/homestay-portal/internal/documents"
	"github.com/hptourism/homestay-portal/internal/inspections"
	"github.com/hptourism/homestay-portal/internal/payments"
	"github.com/hptourism/homestay-portal/internal/users"
	"github.com/hptourism/homestay-portal/internal/workflow"
	"github.com/hptourism/homestay-portal/pkg/auth/session"
	"github.com/hptourism/homestay-portal/pkg/config"
	"github.com/hptourism/homestay-portal/pkg/enums"
	"github.com/hptourism/homestay-portal/pkg/logger"
	"github.com/hptourism/homestay-portal/pkg/redis"
)

// Services groups everything the HTTP surface depends on.
type Services struct {
	Auth         authsvc.Service
	Users        users.Service
	Applications applications.Service
	Documents    documents.Service
	Audit        actions.Service
	Engine       workflow.Service
	Inspections  inspections.Service
	Payments     payments.Service
	Certificates certificates.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.ReadinessCheck,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
	})

	r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).
		Post("/api/v1/users/register", controllers.UsersRegister(svcs.Users, logg))

	// The treasury gateway calls back without portal credentials; the handler
	// re-verifies the challan with the gateway before moving any state.
	r.Post("/api/v1/payments/callback", controllers.PaymentsCallback(svcs.Payments, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Post("/auth/logout", controllers.AuthLogout(svcs.Auth, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.UsersMe(svcs.Users, logg))
			r.Put("/me/password", controllers.UsersChangePassword(svcs.Users, logg))
		})

		r.Route("/admin/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin, enums.UserRoleSuperAdmin))
			r.Post("/", controllers.UsersProvision(svcs.Users, logg))
			r.Post("/{id}/deactivate", controllers.UsersDeactivate(svcs.Users, logg))
		})

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", controllers.ApplicationsList(svcs.Applications, logg))
			r.Post("/", controllers.ApplicationsCreate(svcs.Applications, logg))

			r.With(middleware.RequireStaff(logg)).Get("/all", controllers.ApplicationsListAll(svcs.Applications, logg))
			r.With(middleware.RequireStaff(logg)).Post("/search", controllers.ApplicationsSearch(svcs.Applications, logg))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", controllers.ApplicationsGet(svcs.Applications, logg))
				r.Patch("/", controllers.ApplicationsUpdate(svcs.Applications, logg))
				r.Post("/submit", controllers.ApplicationsSubmit(svcs.Applications, logg))
				r.Post("/resubmit", controllers.ApplicationsSubmit(svcs.Applications, logg))
				r.Get("/timeline", controllers.ApplicationsTimeline(svcs.Applications, svcs.Audit, logg))

				r.Post("/documents", controllers.DocumentsUpload(svcs.Documents, logg))
				r.Get("/documents", controllers.DocumentsList(svcs.Applications, svcs.Documents, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireStaff(logg))
					r.Post("/review", controllers.ApplicationsReview(svcs.Applications, svcs.Engine, svcs.Inspections, logg))
					r.Post("/send-back", controllers.ApplicationsSendBack(svcs.Engine, logg))
					r.Post("/accept", controllers.ApplicationsAccept(svcs.Applications, svcs.Engine, svcs.Inspections, logg))
					r.Post("/revert", controllers.ApplicationsRevert(svcs.Engine, logg))
					r.Post("/move-to-inspection", controllers.ApplicationsMoveToInspection(svcs.Inspections, logg))
					r.Post("/complete-inspection", controllers.ApplicationsCompleteInspection(svcs.Inspections, logg))
					r.Get("/inspection", controllers.ApplicationsInspection(svcs.Inspections, logg))
				})

				r.Post("/payments", controllers.PaymentsInitiate(svcs.Payments, logg))
				r.Get("/payments", controllers.PaymentsList(svcs.Payments, logg))

				r.With(middleware.RequireRole(logg, enums.UserRoleStateOfficer, enums.UserRoleAdmin)).
					Post("/certificate", controllers.CertificatesIssue(svcs.Certificates, logg))
				r.Get("/certificate", controllers.CertificatesGet(svcs.Certificates, logg))
			})
		})

		r.With(middleware.RequireStaff(logg)).
			Post("/documents/{id}/verify", controllers.DocumentsVerify(svcs.Documents, logg))
	})

	return r
}
