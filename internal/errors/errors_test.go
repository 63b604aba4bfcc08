package errors_test

import (
	"fmt"
	"testing"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	f := errors.New()

	assert.Equal(t, "Failed to publish payload", f.New(errors.ErrPublish).Error())
	assert.Equal(t, "custom", f.WithMessage(errors.ErrPublish, "custom").Error())
	assert.Equal(t, "Invalid raw event: key", f.WithData(errors.ErrInvalidEvent, "key").Error())

	wrapped := f.Wrap(errors.ErrPublish, fmt.Errorf("connection refused"))
	assert.Equal(t, "Failed to publish payload: connection refused", wrapped.Error())
}

func TestCodeLookup(t *testing.T) {
	f := errors.New()
	inner := f.New(errors.ErrClockSkew)
	outer := f.Wrap(errors.ErrDecodeEvent, inner)
	plain := fmt.Errorf("wrapped: %w", outer)

	assert.Equal(t, errors.ErrDecodeEvent, errors.CodeOf(plain))
	assert.True(t, errors.HasCode(plain, errors.ErrClockSkew))
	assert.False(t, errors.HasCode(plain, errors.ErrPublish))
	assert.Equal(t, errors.ErrorCode(""), errors.CodeOf(fmt.Errorf("plain")))
}

func TestUnknownCodeMessage(t *testing.T) {
	code := errors.ErrorCode("made_up")
	assert.Equal(t, "made_up", errors.GetErrorMessage(code))
}
