package handler

import (
	"net/http"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Clientes: /v1/clients
// ============================================================

func listClientsHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients")
		defer span.End()

		clients, err := svc.ListClients(ctx, ActorFromContext(ctx))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		page, pageSize := parsePagination(r)
		writeJSON(w, http.StatusOK, domain.Paginate(clients, page, pageSize))
	}
}

func createClientHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients")
		defer span.End()

		var req domain.NewClient
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		c, err := svc.CreateClient(ctx, ActorFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func getClientHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients/{clientId}")
		defer span.End()

		id, err := pathID(r, "clientId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("client.id", id))

		c, err := svc.GetClient(ctx, ActorFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func updateClientHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/clients/{clientId}")
		defer span.End()

		id, err := pathID(r, "clientId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		var req domain.NewClient
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		c, err := svc.UpdateClient(ctx, ActorFromContext(ctx), id, req)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func deleteClientHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/clients/{clientId}")
		defer span.End()

		id, err := pathID(r, "clientId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		if err := svc.DeleteClient(ctx, ActorFromContext(ctx), id); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func clientStatsHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients/{clientId}/stats")
		defer span.End()

		id, err := pathID(r, "clientId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		stats, err := svc.ClientStats(ctx, ActorFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
