package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	dbDown := errors.New("connection refused")

	tests := []struct {
		name     string
		err      error
		sentinel error
		want     string
	}{
		{
			name:     "not found",
			err:      errs.NewObjectNotFoundError("jobID", "j-1"),
			sentinel: errs.ErrObjectNotFound,
			want:     "object not found: j-1",
		},
		{
			name:     "not found with cause",
			err:      errs.NewObjectNotFoundErrorWithCause("driverID", "d-9", dbDown),
			sentinel: errs.ErrObjectNotFound,
			want:     "object not found: param is: driverID, ID is: d-9 (cause: connection refused)",
		},
		{
			name:     "not found with numeric id",
			err:      errs.NewObjectNotFoundError("menuItem", 17),
			sentinel: errs.ErrObjectNotFound,
			want:     "object not found: %!s(int=17)",
		},
		{
			name:     "invalid",
			err:      errs.NewValueIsInvalidError("kind"),
			sentinel: errs.ErrValueIsInvalid,
			want:     "value is invalid: kind",
		},
		{
			name:     "invalid with cause",
			err:      errs.NewValueIsInvalidErrorWithCause("size", errors.New(`"huge" is not a parcel size`)),
			sentinel: errs.ErrValueIsInvalid,
			want:     `value is invalid: size (cause: "huge" is not a parcel size)`,
		},
		{
			name:     "out of range",
			err:      errs.NewValueIsOutOfRangeError("rating", 7, 1, 5),
			sentinel: errs.ErrValueIsOutOfRange,
			want:     "value is invalid: 7 is rating, min value is 1, max value is 5",
		},
		{
			name:     "out of range with cause",
			err:      errs.NewValueIsOutOfRangeErrorWithCause("weightKg", -2, 0, 50, errors.New("negative weight")),
			sentinel: errs.ErrValueIsOutOfRange,
			want:     "value is invalid: -2 is weightKg, min value is 0, max value is 50 (cause: negative weight)",
		},
		{
			name:     "required",
			err:      errs.NewValueIsRequiredError("customerID"),
			sentinel: errs.ErrValueIsRequired,
			want:     "value is required: customerID",
		},
		{
			name:     "required with cause",
			err:      errs.NewValueIsRequiredErrorWithCause("items", errors.New("empty order")),
			sentinel: errs.ErrValueIsRequired,
			want:     "value is required: items (cause: empty order)",
		},
		{
			name:     "forbidden",
			err:      errs.NewForbiddenError("c-42", "cancel job"),
			sentinel: errs.ErrForbidden,
			want:     "action is forbidden: cancel job by c-42",
		},
		{
			name:     "forbidden with cause",
			err:      errs.NewForbiddenErrorWithCause("d-7", "update job", errors.New("not the assigned driver")),
			sentinel: errs.ErrForbidden,
			want:     "action is forbidden: update job by d-7 (cause: not the assigned driver)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.sentinel)

			wrapped := fmt.Errorf("claim job: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
		})
	}
}

func TestErrorFieldsAreExposed(t *testing.T) {
	cause := errors.New("row locked")

	notFound := errs.NewObjectNotFoundErrorWithCause("jobID", "j-1", cause)
	assert.Equal(t, "jobID", notFound.ParamName)
	assert.Equal(t, "j-1", notFound.ID)
	assert.Equal(t, cause, notFound.Cause)

	outOfRange := errs.NewValueIsOutOfRangeError("fanout", 0, 1, 10)
	assert.Equal(t, "fanout", outOfRange.ParamName)
	assert.Equal(t, 0, outOfRange.Value)
	assert.Equal(t, 1, outOfRange.Min)
	assert.Equal(t, 10, outOfRange.Max)
	require.NoError(t, outOfRange.Cause)

	forbidden := errs.NewForbiddenError("d-3", "accept job")
	assert.Equal(t, "d-3", forbidden.Actor)
	assert.Equal(t, "accept job", forbidden.Action)

	var target *errs.ValueIsRequiredError
	require.ErrorAs(t, fmt.Errorf("create job: %w", errs.NewValueIsRequiredError("pickup")), &target)
	assert.Equal(t, "pickup", target.ParamName)
}

func TestOutOfRangeMessageIsSingleLine(t *testing.T) {
	err := errs.NewValueIsOutOfRangeError("comment", "too\nlong", 0, 500)

	assert.Contains(t, err.Error(), "too long")
	assert.NotContains(t, err.Error(), "\n")
}

func TestSentinelMessages(t *testing.T) {
	assert.Equal(t, "object not found", errs.ErrObjectNotFound.Error())
	assert.Equal(t, "value is invalid", errs.ErrValueIsInvalid.Error())
	assert.Equal(t, "value is out of range", errs.ErrValueIsOutOfRange.Error())
	assert.Equal(t, "value is required", errs.ErrValueIsRequired.Error())
	assert.Equal(t, "action is forbidden", errs.ErrForbidden.Error())
}
