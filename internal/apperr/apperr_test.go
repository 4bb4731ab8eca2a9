package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryOf(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name       string
		err        error
		category   Category
		status     int
		publicText string
	}{
		{
			name:       "validation",
			err:        Validation("Invalid %s parameter", "ageMin"),
			category:   CategoryValidation,
			status:     http.StatusBadRequest,
			publicText: "Invalid ageMin parameter",
		},
		{
			name:       "store",
			err:        Store("Failed to fetch transactions", cause),
			category:   CategoryStore,
			status:     http.StatusInternalServerError,
			publicText: "Failed to fetch transactions",
		},
		{
			name:       "wrapped store",
			err:        fmt.Errorf("List: %w", Store("Failed to fetch transactions", cause)),
			category:   CategoryStore,
			status:     http.StatusInternalServerError,
			publicText: "Failed to fetch transactions",
		},
		{
			name:       "foreign",
			err:        cause,
			category:   CategoryInternal,
			status:     http.StatusInternalServerError,
			publicText: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, CategoryOf(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.publicText, PublicMessage(tt.err))
		})
	}
}

func TestStoreErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("socket timeout")
	err := Store("Failed to fetch analytics", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "socket timeout")
	assert.False(t, IsValidation(err))
	assert.True(t, IsValidation(Validation("bad")))
}
