package commands_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpdateLocationCommand(t *testing.T) {
	driverID := kernel.NewUUID()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	loc := kernel.MustNewLocation(-33.8688, 151.2093)

	cmd, err := commands.NewUpdateLocationCommand(driverID, loc, at)

	require.NoError(t, err)
	assert.Equal(t, driverID, cmd.DriverID())
	assert.True(t, cmd.Location().IsEqual(loc))
	assert.Equal(t, at, cmd.ReportedAt())
}

func TestNewUpdateLocationCommand_InvalidInput(t *testing.T) {
	_, err := commands.NewUpdateLocationCommand(kernel.UUID{}, kernel.Location{}, time.Time{})

	require.Error(t, err)
	assert.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	assert.ErrorIs(t, err, kernel.ErrInvalidGeometry)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
}
