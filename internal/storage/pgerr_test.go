package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"clinica/pkg/platform/sentinel"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{"no rows becomes not found", sql.ErrNoRows, sentinel.ErrNotFound},
		{"wrapped no rows becomes not found", fmt.Errorf("scan: %w", sql.ErrNoRows), sentinel.ErrNotFound},
		{"unique violation becomes conflict", &pq.Error{Code: "23505", Constraint: "doctors_tenant_license_uq"}, sentinel.ErrConflict},
		{"fk violation becomes foreign tenant", &pq.Error{Code: "23503", Constraint: "appointments_tenant_id_doctor_id_fkey"}, sentinel.ErrForeignTenant},
		{"row security rejection becomes scope rejected", &pq.Error{Code: "42501"}, sentinel.ErrScopeRejected},
		{"malformed uuid cast becomes scope rejected", &pq.Error{Code: "22P02"}, sentinel.ErrScopeRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.True(t, errors.Is(got, tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestMapError_UnknownErrorsPassThrough(t *testing.T) {
	plain := errors.New("connection reset")
	assert.Equal(t, plain, MapError(plain))

	otherPq := &pq.Error{Code: "40001"} // serialization failure
	assert.Equal(t, error(otherPq), MapError(otherPq))
}
