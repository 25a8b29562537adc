package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// 23505 = unique_violation, 23503 = foreign_key_violation
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}
