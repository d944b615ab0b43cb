package handler

import (
	"net/http"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Lembretes: /v1/reminders
// ============================================================

func listRemindersHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reminders")
		defer span.End()

		reminders, err := svc.ListReminders(ctx, ActorFromContext(ctx))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, reminders)
	}
}

func dismissReminderHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/reminders/{operationId}/dismiss")
		defer span.End()

		id, err := pathID(r, "operationId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		if err := svc.DismissReminder(ctx, ActorFromContext(ctx), id); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Painel & relatórios: /v1/dashboard, /v1/reports
// ============================================================

func dashboardHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		dash, err := svc.Dashboard(ctx, ActorFromContext(ctx))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}

func reportsHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports")
		defer span.End()

		var rng domain.ReportRange
		var err error
		if rng.Start, err = queryDate(r, "start"); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		if rng.End, err = queryDate(r, "end"); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}

		report, err := svc.Report(ctx, ActorFromContext(ctx), rng)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// ============================================================
// Calculadora: POST /v1/calculator
// ============================================================

func calculatorHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/calculator")
		defer span.End()

		var req domain.InterestInput
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		res, err := svc.Calculate(ctx, ActorFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ============================================================
// Métricas: GET /v1/metrics/summary
// ============================================================

func metricsSummaryHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.MetricsSummary(r.Context(), ActorFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
