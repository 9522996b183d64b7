package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMapping(t *testing.T) {
	tests := []struct {
		err    error
		kind   Kind
		status int
	}{
		{Validation("bad %s", "input"), KindValidation, http.StatusBadRequest},
		{Unauthenticated("no token"), KindUnauthenticated, http.StatusUnauthorized},
		{Forbidden("nope"), KindForbidden, http.StatusForbidden},
		{NotFound("job not found"), KindNotFound, http.StatusNotFound},
		{Conflict("dup"), KindConflict, http.StatusConflict},
		{InvalidTransition("REJECTED -> HIRED"), KindInvalidTransition, http.StatusUnprocessableEntity},
		{RateLimited(), KindRateLimited, http.StatusTooManyRequests},
		{errors.New("boom"), KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.status, KindOf(tt.err).HTTPStatus())
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("apply: %w", Conflict("already applied"))
	assert.True(t, Is(err, KindConflict))
	assert.Equal(t, "already applied", PublicMessage(err))
}

func TestInternalHidesDetails(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"))
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal error", PublicMessage(err))
	assert.NotEmpty(t, Stack(err))
	assert.Contains(t, err.Error(), "connection refused")

	// 已分类的错误原样返回
	nf := NotFound("cv not found")
	assert.Same(t, nf, Internal(nf))
	assert.Nil(t, Internal(nil))
}
