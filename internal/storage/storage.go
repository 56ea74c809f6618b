package storage

import (
	"errors"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrSlugTaken = errors.New("organization slug already taken")

type Storage struct {
	db *sqlx.DB

	// hasDisabledByOrg is probed once at startup. When the column is
	// missing the cascade runs in degraded mode: disables lose the
	// org-caused marker and enables never resurrect anyone.
	hasDisabledByOrg bool
}

func New(db *sqlx.DB) (*Storage, error) {
	s := &Storage{db: db}

	var exists bool
	err := db.Get(&exists, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'users' AND column_name = 'disabled_by_org'
		)
	`)
	if err != nil {
		return nil, err
	}
	s.hasDisabledByOrg = exists
	if !exists {
		log.Println("WARN users.disabled_by_org column missing; organization cascade runs in degraded mode")
	}

	return s, nil
}

// DisabledByOrgSupported reports whether the schema can distinguish
// org-caused from manual disablement.
func (s *Storage) DisabledByOrgSupported() bool {
	return s.hasDisabledByOrg
}

func (s *Storage) Ping() error {
	return s.db.Ping()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
