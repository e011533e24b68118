package validator

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confdef/internal/configerr"
)

func TestRange_AtLeast(t *testing.T) {
	r := AtLeast(10)
	assert.NoError(t, r.Validate("n", int32(10)))
	assert.NoError(t, r.Validate("n", int32(11)))

	err := r.Validate("n", int32(9))
	require.Error(t, err)
	assert.ErrorIs(t, err, configerr.ErrValidationFailure)
	assert.Equal(t, "Invalid value 9 for configuration n: value must be at least 10", err.Error())
}

func TestRange_AtMost(t *testing.T) {
	r := AtMost(int64(100))
	assert.NoError(t, r.Validate("n", int64(100)))
	assert.ErrorIs(t, r.Validate("n", int64(101)), configerr.ErrValidationFailure)
	assert.NoError(t, r.Validate("n", int64(math.MinInt64)))
}

func TestRange_BetweenOnDouble(t *testing.T) {
	r := Between(0, 1)
	assert.NoError(t, r.Validate("ratio", 0.0))
	assert.NoError(t, r.Validate("ratio", 1.0))

	err := r.Validate("ratio", 1.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, configerr.ErrValidationFailure)
	assert.Contains(t, err.Error(), "value must not be more than 1")

	max, ok := r.Max()
	require.True(t, ok)
	assert.Equal(t, 1, max)
}

func TestRange_DoubleUsesFloatComparison(t *testing.T) {
	// 0.5 would truncate to 0 under integer semantics and pass AtLeast(0.7)'s
	// truncated bound of 0.
	assert.Error(t, AtLeast(0.7).Validate("d", 0.5))
	assert.NoError(t, AtLeast(0.7).Validate("d", 0.7))
}

func TestRange_LongUsesIntegerComparison(t *testing.T) {
	// MaxInt64 and MaxInt64-1 are indistinguishable as float64.
	r := AtMost(int64(math.MaxInt64 - 1))
	assert.NoError(t, r.Validate("n", int64(math.MaxInt64-1)))
	assert.Error(t, r.Validate("n", int64(math.MaxInt64)))
}

func TestRange_UnsignedAboveInt64(t *testing.T) {
	assert.ErrorIs(t, AtMost(10).Validate("n", uint64(math.MaxUint64)), configerr.ErrValidationFailure)
	assert.NoError(t, AtLeast(-1).Validate("n", uint64(math.MaxUint64)))
	assert.NoError(t, AtMost(uint64(math.MaxUint64)).Validate("n", uint64(math.MaxUint64)))

	r := AtLeast(uint64(math.MaxInt64) + 2)
	assert.ErrorIs(t, r.Validate("n", int64(math.MaxInt64)), configerr.ErrValidationFailure)
	assert.ErrorIs(t, r.Validate("n", int64(-1)), configerr.ErrValidationFailure)
	assert.ErrorIs(t, r.Validate("n", uint64(math.MaxInt64)+1), configerr.ErrValidationFailure)
	assert.NoError(t, r.Validate("n", uint64(math.MaxInt64)+2))

	min, ok := r.Min()
	require.True(t, ok)
	assert.Equal(t, uint64(math.MaxInt64)+2, min)
}

func TestRange_Unbounded(t *testing.T) {
	r := Range{}
	assert.NoError(t, r.Validate("n", int64(math.MaxInt64)))
	_, ok := r.Min()
	assert.False(t, ok)
	_, ok = r.Max()
	assert.False(t, ok)
}

func TestRange_NonNumeric(t *testing.T) {
	assert.ErrorIs(t, AtLeast(1).Validate("n", "5"), configerr.ErrValidationFailure)
}

func TestValidString(t *testing.T) {
	v := Matching(`[a-z]+_[0-9]+`)
	assert.NoError(t, v.Validate("topic", "flink_1"))
	assert.Equal(t, KindValidString, v.Kind())
	assert.Equal(t, `[a-z]+_[0-9]+`, v.Pattern())

	// Partial matches are rejected.
	assert.ErrorIs(t, v.Validate("topic", "xflink_1x!"), configerr.ErrValidationFailure)
	assert.ErrorIs(t, v.Validate("topic", "FLINK_1"), configerr.ErrValidationFailure)
	assert.ErrorIs(t, v.Validate("topic", 12), configerr.ErrValidationFailure)

	// Alternation stays anchored as a whole.
	alt := Matching(`a|b`)
	assert.NoError(t, alt.Validate("x", "a"))
	assert.Error(t, alt.Validate("x", "ab"))
}

func TestValidString_InvalidPattern(t *testing.T) {
	_, err := NewValidString(`[unclosed`)
	assert.Error(t, err)
	assert.Panics(t, func() { Matching(`(`) })
}

func TestSetMembership(t *testing.T) {
	s := In("test", "live")
	assert.NoError(t, s.Validate("mode", "live"))

	err := s.Validate("mode", "prod")
	require.Error(t, err)
	assert.ErrorIs(t, err, configerr.ErrValidationFailure)
	assert.Contains(t, err.Error(), "valid values are only [test live]")
	assert.Equal(t, []any{"test", "live"}, s.Allowed())
}

func TestSetMembership_NumericWidths(t *testing.T) {
	s := In(1, 2, 3)
	assert.NoError(t, s.Validate("n", int32(2)))
	assert.NoError(t, s.Validate("n", int64(3)))
	assert.Error(t, s.Validate("n", int32(4)))
	assert.Error(t, s.Validate("n", "2"))
}

func TestTag(t *testing.T) {
	v := Tagged("url")
	assert.Equal(t, "url", v.Expr())
	assert.NoError(t, v.Validate("sink.db.url", "http://localhost:3306/db"))
	assert.ErrorIs(t, v.Validate("sink.db.url", "not a url"), configerr.ErrValidationFailure)

	// Tags that do not apply to the value's kind fail instead of panicking.
	assert.ErrorIs(t, v.Validate("sink.db.url", int32(5)), configerr.ErrValidationFailure)
}

func TestTag_Unknown(t *testing.T) {
	_, err := NewTag("no_such_tag")
	assert.Error(t, err)
	_, err = NewTag("")
	assert.Error(t, err)
	assert.Panics(t, func() { Tagged("no_such_tag") })
}

// For any bounds lo <= hi, Between accepts exactly the values in [lo, hi].
func TestRange_Between_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("accepts exactly the closed interval", prop.ForAll(
		func(a, b, v int64) bool {
			lo, hi := a, b
			if lo > hi {
				lo, hi = hi, lo
			}
			err := Between(lo, hi).Validate("n", v)
			inside := v >= lo && v <= hi
			return (err == nil) == inside
		},
		gen.Int64Range(-1000, 1000),
		gen.Int64Range(-1000, 1000),
		gen.Int64Range(-1200, 1200),
	))

	properties.TestingRun(t)
}
