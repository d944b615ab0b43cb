package handler

import (
	"net/http"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Recebimentos: /v1/receipts
// ============================================================

func listReceiptsHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/receipts")
		defer span.End()

		operationID, err := queryInt(r, "operationId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		receipts, err := svc.ListReceipts(ctx, ActorFromContext(ctx), operationID)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		page, pageSize := parsePagination(r)
		writeJSON(w, http.StatusOK, domain.Paginate(receipts, page, pageSize))
	}
}

func registerReceiptHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/receipts")
		defer span.End()

		var req domain.NewReceipt
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		receipt, err := svc.RegisterReceipt(ctx, ActorFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, receipt)
	}
}

func deleteReceiptHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/receipts/{receiptId}")
		defer span.End()

		id, err := pathID(r, "receiptId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		if err := svc.DeleteReceipt(ctx, ActorFromContext(ctx), id); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
