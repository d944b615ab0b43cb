package handler

import (
	"net/http"
	"time"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/infra/observability"
	"github.com/caribe/factoring-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Everything under /v1 except login requires a Bearer token.
func NewRouter(svc *service.FactoringService, authSvc *service.AuthService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc))
	r.Get("/readyz", readyzHandler(svc, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", authLoginHandler(authSvc, logger))

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			r.Get("/auth/me", authMeHandler(authSvc, logger))

			// =============================================
			// Clientes
			// =============================================
			r.Get("/clients", listClientsHandler(svc, logger))
			r.Post("/clients", createClientHandler(svc, logger))
			r.Get("/clients/{clientId}", getClientHandler(svc, logger))
			r.Put("/clients/{clientId}", updateClientHandler(svc, logger))
			r.Delete("/clients/{clientId}", deleteClientHandler(svc, logger))
			r.Get("/clients/{clientId}/stats", clientStatsHandler(svc, logger))

			// =============================================
			// Operações
			// =============================================
			r.Get("/operations", listOperationsHandler(svc, logger))
			r.Post("/operations", createOperationHandler(svc, logger))
			r.Post("/operations/preview", previewOperationHandler(svc, logger))
			r.Get("/operations/{operationId}", getOperationHandler(svc, logger))
			r.Delete("/operations/{operationId}", deleteOperationHandler(svc, logger))
			r.Put("/operations/{operationId}/status", setOperationStatusHandler(svc, logger))
			r.Get("/operations/{operationId}/allocation", allocationHandler(svc, logger))

			// =============================================
			// Recebimentos
			// =============================================
			r.Get("/receipts", listReceiptsHandler(svc, logger))
			r.Post("/receipts", registerReceiptHandler(svc, logger))
			r.Delete("/receipts/{receiptId}", deleteReceiptHandler(svc, logger))

			// =============================================
			// Lembretes, painel, relatórios e calculadora
			// =============================================
			r.Get("/reminders", listRemindersHandler(svc, logger))
			r.Post("/reminders/{operationId}/dismiss", dismissReminderHandler(svc, logger))
			r.Get("/dashboard", dashboardHandler(svc, logger))
			r.Get("/reports", reportsHandler(svc, logger))
			r.Post("/calculator", calculatorHandler(svc, logger))

			// =============================================
			// Usuários
			// =============================================
			r.Get("/users", listUsersHandler(svc, logger))
			r.Post("/users", createUserHandler(svc, logger))
			r.Put("/users/{userId}", updateUserHandler(svc, logger))
			r.Delete("/users/{userId}", deleteUserHandler(svc, logger))

			r.Get("/metrics/summary", metricsSummaryHandler(svc, logger))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(svc *service.FactoringService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "factoring-api", Status: "healthy", LastChecked: now},
		}

		if svc != nil {
			start := time.Now()
			err := svc.Ready(r.Context())
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "storage", Status: status,
				LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overallStatus = s.Status
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc != nil {
			if err := svc.Ready(r.Context()); err != nil {
				logger.Warn("readiness check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
