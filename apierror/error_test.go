package apierror_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KukimiCan/aozora-api/apierror"
)

func TestError(t *testing.T) {
	cause := errors.New("no document available")
	err := apierror.New(cause, http.StatusServiceUnavailable)
	require.Equal(t, "no document available", err.Error())
	require.Equal(t, http.StatusServiceUnavailable, err.Status())
	require.ErrorIs(t, err, cause)

	statusOnly := apierror.New(nil, http.StatusNotFound)
	require.Equal(t, "404 Not Found", statusOnly.Error())
}

func TestEncodeError(t *testing.T) {
	require.Nil(t, apierror.EncodeError(nil))

	err := apierror.New(errors.New("no document available"), http.StatusServiceUnavailable)
	var msg apierror.ErrorMessage
	require.NoError(t, json.Unmarshal(apierror.EncodeError(err), &msg))
	require.Equal(t, "no document available", msg.Message)
	require.Equal(t, http.StatusServiceUnavailable, msg.Status)

	// Wrapped *Error still contributes its status.
	wrapped := fmt.Errorf("handling request: %w", err)
	require.NoError(t, json.Unmarshal(apierror.EncodeError(wrapped), &msg))
	require.Equal(t, http.StatusServiceUnavailable, msg.Status)

	// Plain errors encode with no status.
	msg = apierror.ErrorMessage{}
	require.NoError(t, json.Unmarshal(apierror.EncodeError(errors.New("plain")), &msg))
	require.Equal(t, "plain", msg.Message)
	require.Equal(t, 0, msg.Status)
}
