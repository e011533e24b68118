package configerr

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with value",
			err:  WithValue(KindValidationFailure, "retries", -1, "Value must be at least 0"),
			want: "Invalid value -1 for configuration retries: Value must be at least 0",
		},
		{
			name: "with value, no reason",
			err:  WithValue(KindTypeMismatch, "sink.enabled", "maybe", ""),
			want: "Invalid value maybe for configuration sink.enabled",
		},
		{
			name: "without value",
			err:  New(KindMissingRequired, "sink.password", "required configuration has no value and no default"),
			want: "sink.password: required configuration has no value and no default",
		},
		{
			name: "without name",
			err:  New(KindInvalidSchema, "", "schema is empty"),
			want: "schema is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_IsAndKindOf(t *testing.T) {
	kinds := map[Kind]error{
		KindDuplicateDefinition: ErrDuplicateDefinition,
		KindTypeMismatch:        ErrTypeMismatch,
		KindMissingRequired:     ErrMissingRequired,
		KindValidationFailure:   ErrValidationFailure,
		KindUnknownKey:          ErrUnknownKey,
		KindClassResolution:     ErrClassResolution,
		KindInvalidKey:          ErrInvalidKey,
		KindInvalidSchema:       ErrInvalidSchema,
	}

	for kind, sentinel := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			err := fmt.Errorf("loading: %w", New(kind, "a", "b"))

			assert.True(t, errors.Is(err, sentinel))
			assert.Equal(t, kind, KindOf(err))
			for other, s := range kinds {
				if other != kind {
					assert.False(t, errors.Is(err, s), "matched %s", other)
				}
			}
		})
	}

	assert.Equal(t, Kind(0), KindOf(io.EOF))
	assert.Equal(t, Kind(0), KindOf(nil))
	assert.Equal(t, "Unknown", Kind(0).String())
	assert.False(t, errors.Is(&Error{}, ErrTypeMismatch))
}

func TestError_Unwrap(t *testing.T) {
	err := &Error{Kind: KindTypeMismatch, Name: "a", Reason: "bad", Err: io.ErrUnexpectedEOF}
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestFormat(t *testing.T) {
	err := WithValue(KindTypeMismatch, "checkpointing.interval", "ten", "value must be of type int")

	assert.Equal(t,
		"TypeMismatch: Invalid value ten for configuration checkpointing.interval: value must be of type int",
		Format(err))
	assert.Equal(t,
		"::error file=confdef.yaml,title=TypeMismatch::Invalid value ten for configuration checkpointing.interval: value must be of type int",
		FormatCI(fmt.Errorf("wrapped: %w", err), "confdef.yaml"))

	assert.Equal(t, "EOF", Format(io.EOF))
	assert.Equal(t, "::error file=confdef.yaml::EOF", FormatCI(io.EOF, "confdef.yaml"))
}
