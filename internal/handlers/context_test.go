package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/mhersche/docgate/pkg/errors"
)

func TestSystemErrorMapsDeadlineToUnavailable(t *testing.T) {
	timedOut := systemError(fmt.Errorf("fetch document: %w", context.DeadlineExceeded))
	require.Equal(t, appErrors.ErrServiceUnavailable.Code, timedOut.Code)
	require.Equal(t, http.StatusServiceUnavailable, timedOut.StatusCode)
	require.ErrorIs(t, timedOut, context.DeadlineExceeded)

	internal := systemError(errors.New("disk failure"))
	require.Equal(t, appErrors.ErrInternalServer.Code, internal.Code)
	require.Equal(t, http.StatusInternalServerError, internal.StatusCode)
}
