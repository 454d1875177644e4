package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorMessageIncludesInternal(t *testing.T) {
	base := New("TEST_CODE", "something broke", http.StatusBadRequest)
	require.Equal(t, "something broke", base.Error())

	wrapped := base.WithInternal(stderrors.New("disk full"))
	require.Equal(t, "something broke: disk full", wrapped.Error())

	// WithInternal copies; the shared sentinel stays untouched.
	require.Nil(t, base.Internal)
}

func TestUnwrapExposesInternal(t *testing.T) {
	inner := stderrors.New("root cause")
	wrapped := Wrap(inner, "operation failed")

	require.ErrorIs(t, wrapped, inner)
	require.Equal(t, http.StatusInternalServerError, wrapped.StatusCode)
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	appErr := FromError(ErrNotFound)
	require.Equal(t, ErrNotFound.Code, appErr.Code)

	// AppErrors survive fmt wrapping.
	appErr = FromError(fmt.Errorf("context: %w", ErrAccessDenied))
	require.Equal(t, ErrAccessDenied.Code, appErr.Code)

	generic := FromError(stderrors.New("boom"))
	require.Equal(t, ErrInternalServer.Code, generic.Code)
	require.EqualError(t, generic.Internal, "boom")

	// Storage deadlines read as unavailable, not as an internal fault.
	timedOut := FromError(fmt.Errorf("query: %w", context.DeadlineExceeded))
	require.Equal(t, ErrServiceUnavailable.Code, timedOut.Code)
	require.Equal(t, http.StatusServiceUnavailable, timedOut.StatusCode)
}

func TestSentinelStatusCodes(t *testing.T) {
	cases := map[*AppError]int{
		ErrUnauthenticated:     http.StatusUnauthorized,
		ErrRefreshTokenRevoked: http.StatusUnauthorized,
		ErrInvalidToken:        http.StatusBadRequest,
		ErrDomainNotAllowed:    http.StatusForbidden,
		ErrAccessDenied:        http.StatusForbidden,
		ErrNotFound:            http.StatusNotFound,
		ErrDuplicateRequest:    http.StatusConflict,
		ErrRequestAlreadyFinal: http.StatusConflict,
		ErrRateLimit:           http.StatusTooManyRequests,
	}
	for err, want := range cases {
		require.Equal(t, want, err.StatusCode, err.Code)
	}
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("document_id is required")
	require.Equal(t, ErrBadRequest.Code, err.Code)
	require.Equal(t, "document_id is required", err.Message)
	require.Equal(t, http.StatusBadRequest, err.StatusCode)
}
