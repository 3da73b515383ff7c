package repo

import (
	"errors"

	"gorm.io/gorm"
)

// GormRepo is the persistence boundary. All queries thread the request
// context into gorm.
type GormRepo struct {
	DB *gorm.DB
}

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateName  = errors.New("name already taken")
)

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	default:
		return err
	}
}
