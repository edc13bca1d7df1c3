package db

import (
	"errors"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"nil error", nil, "", false},
		{"postgres duplicate", errors.New(`ERROR: duplicate key value violates unique constraint "users_username_key" (SQLSTATE 23505)`), "", true},
		{"postgres named constraint", errors.New(`ERROR: duplicate key value violates unique constraint "users_phone_number_key"`), "users_phone_number_key", true},
		{"wrong constraint", errors.New(`ERROR: duplicate key value violates unique constraint "users_username_key"`), "users_phone_number_key", false},
		{"sqlite duplicate", errors.New("UNIQUE constraint failed: users.username"), "", true},
		{"unrelated", errors.New("connection refused"), "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Fatalf("IsUniqueViolation = %v, want %v", got, tc.want)
			}
		})
	}
}
