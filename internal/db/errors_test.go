package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"}

	if !IsUniqueViolation(unique, "users_email_key") {
		t.Error("matching constraint not detected")
	}
	if !IsUniqueViolation(unique, "") {
		t.Error("empty constraint should match any unique violation")
	}
	if IsUniqueViolation(unique, "organizations_slug_key") {
		t.Error("different constraint matched")
	}
	if !IsUniqueViolation(fmt.Errorf("insert user: %w", unique), "users_email_key") {
		t.Error("wrapped error not detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, "") {
		t.Error("foreign key violation detected as unique violation")
	}
	if IsUniqueViolation(errors.New("plain"), "") {
		t.Error("plain error detected as unique violation")
	}
	if IsUniqueViolation(nil, "") {
		t.Error("nil error detected as unique violation")
	}
}
