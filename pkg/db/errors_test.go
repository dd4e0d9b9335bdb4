package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolationPgError(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "registry_purchases_order_line_item_key",
	}
	wrapped := fmt.Errorf("create purchase: %w", pgErr)

	if !IsUniqueViolation(wrapped, "") {
		t.Fatal("expected unique violation without constraint filter")
	}
	if !IsUniqueViolation(wrapped, "registry_purchases_order_line_item_key") {
		t.Fatal("expected unique violation with matching constraint")
	}
	if IsUniqueViolation(wrapped, "other_key") {
		t.Fatal("expected mismatch for other constraint")
	}
}

func TestIsUniqueViolationOtherPgCode(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503"}
	if IsUniqueViolation(pgErr, "") {
		t.Fatal("foreign key violations must not match")
	}
}

func TestIsUniqueViolationMessageFallback(t *testing.T) {
	err := errors.New(`UNIQUE constraint failed: registry_purchases.order_id, registry_purchases.line_item_id`)
	if !IsUniqueViolation(err, "") {
		t.Fatal("expected sqlite message match")
	}
	if IsUniqueViolation(errors.New("connection refused"), "") {
		t.Fatal("unrelated errors must not match")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil must not match")
	}
}
