package ledger

import (
	"fmt"
	"strings"

	"github.com/caribe/factoring-bfa-go/internal/domain"
)

// FindUserByEmail looks a user up by case-insensitive email.
func FindUserByEmail(s domain.State, email string) (domain.User, bool) {
	email = strings.TrimSpace(email)
	for _, u := range s.Users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return domain.User{}, false
}

func validateUser(s domain.State, selfID int, in domain.NewUser) error {
	if strings.TrimSpace(in.Nome) == "" {
		return invalid("nome", "O nome é obrigatório")
	}
	if strings.TrimSpace(in.Email) == "" {
		return invalid("email", "O email é obrigatório")
	}
	if !in.Papel.Valid() {
		return invalid("papel", "papel deve ser Administrador, Operador ou Analista")
	}
	if other, ok := FindUserByEmail(s, in.Email); ok && other.ID != selfID {
		return &domain.ErrConflict{Message: "Email já cadastrado"}
	}
	return nil
}

// AddUser creates a user. passwordHash must already be hashed and is
// required for new users.
func AddUser(s domain.State, in domain.NewUser, passwordHash string) (domain.State, domain.User, error) {
	if err := validateUser(s, 0, in); err != nil {
		return s, domain.User{}, err
	}
	if passwordHash == "" {
		return s, domain.User{}, invalid("password", "A senha é obrigatória para novos usuários")
	}
	id := nextID(s.Sequences.Users, s.Users, func(u domain.User) int { return u.ID })
	u := domain.User{
		ID:           id,
		Nome:         strings.TrimSpace(in.Nome),
		Email:        strings.TrimSpace(in.Email),
		Papel:        in.Papel,
		PasswordHash: passwordHash,
	}
	s.Users = prepend(s.Users, u)
	s.Sequences.Users = id
	return s, u, nil
}

// UpdateUser edits a user. An empty passwordHash keeps the current one.
func UpdateUser(s domain.State, id int, in domain.NewUser, passwordHash string) (domain.State, domain.User, error) {
	current, ok := s.FindUser(id)
	if !ok {
		return s, domain.User{}, &domain.ErrNotFound{Resource: "user", ID: fmt.Sprint(id)}
	}
	if err := validateUser(s, id, in); err != nil {
		return s, domain.User{}, err
	}
	if passwordHash == "" {
		passwordHash = current.PasswordHash
	}
	updated := domain.User{
		ID:           id,
		Nome:         strings.TrimSpace(in.Nome),
		Email:        strings.TrimSpace(in.Email),
		Papel:        in.Papel,
		PasswordHash: passwordHash,
	}
	users := make([]domain.User, len(s.Users))
	for i, u := range s.Users {
		if u.ID == id {
			u = updated
		}
		users[i] = u
	}
	s.Users = users
	return s, updated, nil
}

// DeleteUser removes a user. An actor can never delete their own account;
// deleting an unknown id returns the snapshot unchanged.
func DeleteUser(s domain.State, actorID, id int) (domain.State, bool, error) {
	if actorID == id {
		return s, false, &domain.ErrSelfDeletion{UserID: id}
	}
	if _, ok := s.FindUser(id); !ok {
		return s, false, nil
	}
	s.Users = filter(s.Users, func(u domain.User) bool { return u.ID != id })
	return s, true, nil
}
