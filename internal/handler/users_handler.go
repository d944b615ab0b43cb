package handler

import (
	"net/http"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Usuários: /v1/users
// ============================================================

func listUsersHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users")
		defer span.End()

		users, err := svc.ListUsers(ctx, ActorFromContext(ctx))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func createUserHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users")
		defer span.End()

		var req domain.NewUser
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		u, err := svc.CreateUser(ctx, ActorFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

func updateUserHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/users/{userId}")
		defer span.End()

		id, err := pathID(r, "userId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		var req domain.NewUser
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		u, err := svc.UpdateUser(ctx, ActorFromContext(ctx), id, req)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func deleteUserHandler(svc *service.FactoringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/users/{userId}")
		defer span.End()

		id, err := pathID(r, "userId")
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		if err := svc.DeleteUser(ctx, ActorFromContext(ctx), id); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
