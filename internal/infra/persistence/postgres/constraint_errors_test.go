package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestConstraintViolationHelpers(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation})
	foreign := &pgconn.PgError{Code: pgForeignKeyViolation}
	notNull := &pgconn.PgError{Code: pgNotNullViolation, Message: "violates constraint"}
	check := &pgconn.PgError{Code: pgCheckViolation}

	assert.True(t, isUniqueConstraintViolation(unique))
	assert.True(t, isUniqueConstraintViolation(gorm.ErrDuplicatedKey))
	assert.False(t, isUniqueConstraintViolation(foreign))

	assert.True(t, isForeignKeyConstraintViolation(foreign))
	assert.True(t, isForeignKeyConstraintViolation(gorm.ErrForeignKeyViolated))
	assert.False(t, isForeignKeyConstraintViolation(unique))

	assert.True(t, isNotNullConstraintViolation(notNull))
	assert.True(t, isNotNullConstraintViolation(fmt.Errorf("null value in column \"email\"")))

	assert.True(t, isCheckConstraintViolation(check))
	assert.False(t, isCheckConstraintViolation(unique))
}
