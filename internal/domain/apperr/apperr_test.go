package apperr

import (
	"fmt"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
)

type quantityError struct{}

func (quantityError) Error() string { return "bad quantity" }
func (quantityError) Kind() Kind    { return KindValidation }

func TestKindOf(t *testing.T) {
	sentinel := NotFound("thing not found")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindInternal},
		{name: "plain error", err: errors.New("boom"), want: KindInternal},
		{name: "validation", err: Validation("bad"), want: KindValidation},
		{name: "formatted validation", err: Validationf("bad %d", 1), want: KindValidation},
		{name: "wrapped sentinel", err: errors.Wrap(sentinel, "load"), want: KindNotFound},
		{name: "fmt wrapped", err: fmt.Errorf("op: %w", Forbidden("no")), want: KindForbidden},
		{name: "typed error", err: fmt.Errorf("op: %w", quantityError{}), want: KindValidation},
		{name: "unauthorized", err: Unauthorized("who"), want: KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIs(t *testing.T) {
	err := errors.Wrap(Validation("bad"), "create")
	assert.True(t, Is(err, KindValidation))
	assert.False(t, Is(err, KindNotFound))
	assert.False(t, Is(nil, KindInternal))
	assert.Equal(t, "validation", KindValidation.String())
}
