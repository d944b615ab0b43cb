package service

import (
	"context"
	"fmt"
	"time"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/infra/observability"
	"github.com/caribe/factoring-bfa-go/internal/ledger"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Users: /v1/users
// ============================================================

func (s *FactoringService) ListUsers(ctx context.Context, actor domain.Actor) (out []domain.UserView, err error) {
	_, span := tracer.Start(ctx, "FactoringService.ListUsers")
	defer span.End()
	defer s.observe("list_users", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionManageUsers); err != nil {
		return nil, err
	}
	users := s.Snapshot().Users
	out = make([]domain.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, u.View())
	}
	return out, nil
}

// UserByID returns a user without its credential.
func (s *FactoringService) UserByID(ctx context.Context, id int) (domain.UserView, error) {
	u, ok := s.Snapshot().FindUser(id)
	if !ok {
		return domain.UserView{}, &domain.ErrNotFound{Resource: "user", ID: fmt.Sprint(id)}
	}
	return u.View(), nil
}

// FindUserByEmail returns the full user, hash included, for login.
func (s *FactoringService) FindUserByEmail(email string) (domain.User, bool) {
	return ledger.FindUserByEmail(s.Snapshot(), email)
}

func (s *FactoringService) CreateUser(ctx context.Context, actor domain.Actor, in domain.NewUser) (view domain.UserView, err error) {
	ctx, span := tracer.Start(ctx, "FactoringService.CreateUser")
	defer span.End()
	defer s.observe("create_user", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionManageUsers); err != nil {
		return domain.UserView{}, err
	}
	if err := s.check(in); err != nil {
		s.rejected(ctx, "create_user", err)
		return domain.UserView{}, err
	}
	if in.Password == "" {
		return domain.UserView{}, &domain.ErrValidation{Field: "password", Message: "A senha é obrigatória para novos usuários"}
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return domain.UserView{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, u, err := ledger.AddUser(s.state, in, hash)
	if err != nil {
		s.rejected(ctx, "create_user", err)
		return domain.UserView{}, err
	}
	if err := s.commit(ctx, next); err != nil {
		return domain.UserView{}, err
	}

	s.metrics.IncrMutation("user", "create")
	observability.WithTrace(ctx, s.logger).Info("user created",
		zap.Int("user_id", u.ID),
		zap.String("papel", string(u.Papel)),
		zap.Int("actor_id", actor.UserID),
	)
	return u.View(), nil
}

// UpdateUser edits a user. An empty password keeps the current one.
func (s *FactoringService) UpdateUser(ctx context.Context, actor domain.Actor, id int, in domain.NewUser) (view domain.UserView, err error) {
	ctx, span := tracer.Start(ctx, "FactoringService.UpdateUser")
	defer span.End()
	span.SetAttributes(attribute.Int("user.id", id))
	defer s.observe("update_user", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionManageUsers); err != nil {
		return domain.UserView{}, err
	}
	if err := s.check(in); err != nil {
		s.rejected(ctx, "update_user", err)
		return domain.UserView{}, err
	}
	var hash string
	if in.Password != "" {
		if hash, err = HashPassword(in.Password); err != nil {
			return domain.UserView{}, fmt.Errorf("hash password: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, u, err := ledger.UpdateUser(s.state, id, in, hash)
	if err != nil {
		s.rejected(ctx, "update_user", err)
		return domain.UserView{}, err
	}
	if err := s.commit(ctx, next); err != nil {
		return domain.UserView{}, err
	}

	s.metrics.IncrMutation("user", "update")
	observability.WithTrace(ctx, s.logger).Info("user updated",
		zap.Int("user_id", id),
		zap.Bool("password_changed", hash != ""),
		zap.Int("actor_id", actor.UserID),
	)
	return u.View(), nil
}

// DeleteUser removes a user. Actors cannot delete themselves; unknown ids
// succeed without changes.
func (s *FactoringService) DeleteUser(ctx context.Context, actor domain.Actor, id int) (err error) {
	ctx, span := tracer.Start(ctx, "FactoringService.DeleteUser")
	defer span.End()
	span.SetAttributes(attribute.Int("user.id", id))
	defer s.observe("delete_user", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionManageUsers); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, removed, err := ledger.DeleteUser(s.state, actor.UserID, id)
	if err != nil {
		s.logger.Warn("self deletion refused", zap.Int("user_id", id))
		return err
	}
	if !removed {
		return nil
	}
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	s.metrics.IncrMutation("user", "delete")
	observability.WithTrace(ctx, s.logger).Info("user deleted",
		zap.Int("user_id", id),
		zap.Int("actor_id", actor.UserID),
	)
	return nil
}
