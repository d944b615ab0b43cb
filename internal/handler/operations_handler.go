package handler

import (
	"net/http"
	"strconv"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Operações: /v1/operations
// ============================================================

func listOperationsHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/operations")
		defer span.End()

		clientID, err := queryInt(r, "clientId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		filter := service.OperationFilter{
			ClientID: clientID,
			Status:   domain.OperationStatus(r.URL.Query().Get("status")),
		}

		ops, err := svc.ListOperations(ctx, ActorFromContext(ctx), filter)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		page, pageSize := parsePagination(r)
		writeJSON(w, http.StatusOK, domain.Paginate(ops, page, pageSize))
	}
}

func createOperationHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/operations")
		defer span.End()

		var req domain.NewOperation
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		op, err := svc.CreateOperation(ctx, ActorFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, op)
	}
}

func previewOperationHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/operations/preview")
		defer span.End()

		var req struct {
			NominalValue float64 `json:"nominalValue"`
			Taxa         float64 `json:"taxa"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		preview, err := svc.PreviewOperation(ctx, ActorFromContext(ctx), req.NominalValue, req.Taxa)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, preview)
	}
}

func getOperationHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/operations/{operationId}")
		defer span.End()

		id, err := pathID(r, "operationId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("operation.id", id))

		detail, err := svc.GetOperation(ctx, ActorFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func deleteOperationHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/operations/{operationId}")
		defer span.End()

		id, err := pathID(r, "operationId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		if err := svc.DeleteOperation(ctx, ActorFromContext(ctx), id); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func setOperationStatusHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/operations/{operationId}/status")
		defer span.End()

		id, err := pathID(r, "operationId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		var req struct {
			Status domain.OperationStatus `json:"status"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		op, err := svc.SetOperationStatus(ctx, ActorFromContext(ctx), id, req.Status)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, op)
	}
}

// allocationHandler suggests the split of a receipt:
// GET /v1/operations/{operationId}/allocation?total=1000&interest_only=false
func allocationHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/operations/{operationId}/allocation")
		defer span.End()

		id, err := pathID(r, "operationId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		total, err := strconv.ParseFloat(r.URL.Query().Get("total"), 64)
		if err != nil {
			handleServiceError(w, r, &domain.ErrValidation{Field: "total", Message: "valor numérico obrigatório"}, logger)
			return
		}
		interestOnly := false
		if v := r.URL.Query().Get("interest_only"); v != "" {
			if interestOnly, err = strconv.ParseBool(v); err != nil {
				handleServiceError(w, r, &domain.ErrValidation{Field: "interest_only", Message: "deve ser true ou false"}, logger)
				return
			}
		}

		alloc, err := svc.SuggestAllocation(ctx, ActorFromContext(ctx), id, total, interestOnly)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, alloc)
	}
}
