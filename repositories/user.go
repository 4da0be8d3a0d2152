//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	apperrors "voice-lab/errors"
)

type IUserRepository interface {
	CreateUser(email, passwordHash string) (string, error)
	GetUserByEmail(email string) (UserRecord, error)
}

type UserRecord struct {
	ID           string    `cbor:"id"`
	Email        string    `cbor:"email"`
	PasswordHash string    `cbor:"password_hash"`
	Roles        []string  `cbor:"roles"`
	CreatedAt    time.Time `cbor:"created_at"`
}

type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) UserRepository {
	return UserRepository{db: db, log: log}
}

// CreateUser stores credentials keyed by email. The email is the uniqueness
// boundary; a taken email fails without overwriting.
func (r UserRepository) CreateUser(email, passwordHash string) (string, error) {
	record := UserRecord{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}
	bytes, err := cbor.Marshal(record)
	if err != nil {
		return "", err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		key := userKey(email)
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("%w: %s", apperrors.ErrUserAlreadyExists, email)
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(key, bytes)
	})
	if err != nil {
		return "", err
	}
	return record.ID, nil
}

func (r UserRepository) GetUserByEmail(email string) (UserRecord, error) {
	var record UserRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(email))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return cbor.Unmarshal(v, &record)
		})
	})
	if err == badger.ErrKeyNotFound {
		return UserRecord{}, fmt.Errorf("%w: %s", apperrors.ErrNotFound, email)
	}
	return record, err
}

func userKey(email string) []byte {
	return []byte(fmt.Sprintf("user:%s", email))
}
