package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	dup := &pq.Error{Code: "23505"}
	require.True(t, IsUniqueViolation(dup))
	require.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup)))
	require.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("plain")))
	require.False(t, IsUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	fk := &pq.Error{Code: "23503"}
	require.True(t, IsForeignKeyViolation(fk))
	require.True(t, IsForeignKeyViolation(fmt.Errorf("insert: %w", fk)))
	require.False(t, IsForeignKeyViolation(&pq.Error{Code: "23505"}))
	require.False(t, IsForeignKeyViolation(nil))
}
