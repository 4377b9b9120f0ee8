package errors_test

import (
	"errors"
	"testing"

	pkgerrors "github.com/agentstation/homewire/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestFrameError(t *testing.T) {
	t.Run("default sentinel", func(t *testing.T) {
		err := pkgerrors.NewFrameError(1, "malformed json", nil)
		assert.Equal(t, "frame rejected at step 1: malformed json", err.Error())
		assert.True(t, pkgerrors.IsInvalidFrame(err))
	})

	t.Run("specific cause", func(t *testing.T) {
		err := pkgerrors.NewFrameError(3, `type "GARAGE"`, pkgerrors.ErrUnknownEntityKind)
		assert.Contains(t, err.Error(), "step 3")
		assert.Contains(t, err.Error(), "unknown entity kind")
		assert.True(t, errors.Is(err, pkgerrors.ErrUnknownEntityKind))
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidFrame))
		assert.False(t, errors.Is(err, pkgerrors.ErrUnknownAction))
	})

	t.Run("as", func(t *testing.T) {
		var wrapped error = pkgerrors.NewFrameError(5, "delete payload", pkgerrors.ErrInvalidPayload)
		var frameErr *pkgerrors.FrameError
		require.True(t, errors.As(wrapped, &frameErr))
		assert.Equal(t, 5, frameErr.Step)
	})
}

func TestTransportError(t *testing.T) {
	t.Run("with endpoint", func(t *testing.T) {
		base := errors.New("connection refused")
		err := pkgerrors.NewTransportError("dial", "ws://localhost:1/updates", base)
		assert.Equal(t, "transport dial ws://localhost:1/updates: connection refused", err.Error())
		assert.Equal(t, base, err.Unwrap())
		assert.True(t, pkgerrors.IsTemporary(err))
	})

	t.Run("without endpoint", func(t *testing.T) {
		err := &pkgerrors.TransportError{Op: "read", Err: errors.New("EOF")}
		assert.Equal(t, "transport read: EOF", err.Error())
	})

	t.Run("wrap helper", func(t *testing.T) {
		assert.Nil(t, pkgerrors.WrapTransport("dial", "x", nil))
		err := pkgerrors.WrapTransport("close", "ws://h", errors.New("boom"))
		var tErr *pkgerrors.TransportError
		require.True(t, errors.As(err, &tErr))
		assert.Equal(t, "close", tErr.Op)
	})
}

func TestCallbackError(t *testing.T) {
	t.Run("string panic", func(t *testing.T) {
		err := pkgerrors.NewCallbackError("FLAT", "sub-1", "boom")
		assert.Equal(t, "subscriber sub-1 for FLAT panicked: boom", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("error panic", func(t *testing.T) {
		base := errors.New("nil map")
		err := pkgerrors.NewCallbackError("status", "sub-2", base)
		assert.True(t, errors.Is(err, base))
	})
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "flat",
			ID:       "42",
		}
		assert.Equal(t, "flat with ID 42 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("house", "7")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "name",
			Message: "cannot be empty",
		}
		assert.Equal(t, "validation failed for field name: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Message: "invalid configuration",
		}
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestAPIError(t *testing.T) {
	t.Run("with status code", func(t *testing.T) {
		err := pkgerrors.NewAPIError("records", 400, "price must be positive")
		assert.Contains(t, err.Error(), "records")
		assert.Contains(t, err.Error(), "400")
		assert.Contains(t, err.Error(), "price must be positive")
		assert.False(t, err.Temporary())
		assert.False(t, pkgerrors.IsServiceUnavailable(err))
	})

	t.Run("server error", func(t *testing.T) {
		err := pkgerrors.NewAPIError("records", 503, "maintenance")
		assert.True(t, err.Temporary())
		assert.True(t, pkgerrors.IsServiceUnavailable(err))
		assert.True(t, pkgerrors.IsTemporary(err))
	})

	t.Run("rate limited", func(t *testing.T) {
		assert.True(t, pkgerrors.NewAPIError("records", 429, "slow down").Temporary())
	})

	t.Run("with wrapped error", func(t *testing.T) {
		baseErr := errors.New("connection timeout")
		err := pkgerrors.WrapAPI("records", 0, baseErr)
		assert.Equal(t, baseErr, errors.Unwrap(err))
		assert.Nil(t, pkgerrors.WrapAPI("records", 200, nil))
	})
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("transport", `unsupported value "grpc"`, nil)
	assert.Equal(t, `configuration error in transport: unsupported value "grpc"`, err.Error())

	err = &pkgerrors.ConfigError{Message: "missing ws_url"}
	assert.Equal(t, "configuration error: missing ws_url", err.Error())
}

func TestResourceError(t *testing.T) {
	t.Run("constructor", func(t *testing.T) {
		err := pkgerrors.NewResourceError("fetch", "flat", "42", pkgerrors.ErrNotFound)
		assert.Equal(t, "failed to fetch flat 42: not found", err.Error())
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("wrap helper", func(t *testing.T) {
		assert.Nil(t, pkgerrors.WrapResource("decode", "house", "1", nil))
		err := pkgerrors.WrapResource("broadcast", "event", "", errors.New("no clients"))
		assert.Equal(t, "failed to broadcast event: no clients", err.Error())
	})
}

func TestTimeoutError(t *testing.T) {
	err := pkgerrors.NewTimeoutError("dial", "10s", "no handshake")
	assert.Equal(t, "operation dial timed out after 10s: no handshake", err.Error())
	assert.True(t, pkgerrors.IsTimeout(err))

	err = pkgerrors.NewTimeoutError("shutdown", "", "clients still attached")
	assert.NotContains(t, err.Error(), "after")
}

func TestIsTemporary(t *testing.T) {
	assert.False(t, pkgerrors.IsTemporary(errors.New("plain")))
	assert.False(t, pkgerrors.IsTemporary(pkgerrors.NewNotFoundError("flat", "1")))
	assert.True(t, pkgerrors.IsTemporary(errors.Join(errors.New("ctx"), pkgerrors.NewTransportError("dial", "", errors.New("x")))))
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []struct {
		name string
		err  error
	}{
		{"ErrInvalidFrame", pkgerrors.ErrInvalidFrame},
		{"ErrUnknownEntityKind", pkgerrors.ErrUnknownEntityKind},
		{"ErrUnknownAction", pkgerrors.ErrUnknownAction},
		{"ErrInvalidPayload", pkgerrors.ErrInvalidPayload},
		{"ErrDeprecatedShape", pkgerrors.ErrDeprecatedShape},
		{"ErrDisconnected", pkgerrors.ErrDisconnected},
		{"ErrReconnectExhausted", pkgerrors.ErrReconnectExhausted},
		{"ErrNotFound", pkgerrors.ErrNotFound},
		{"ErrInvalidInput", pkgerrors.ErrInvalidInput},
		{"ErrServiceUnavailable", pkgerrors.ErrServiceUnavailable},
		{"ErrTimeout", pkgerrors.ErrTimeout},
		{"ErrCanceled", pkgerrors.ErrCanceled},
	}

	for _, tc := range sentinels {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotNil(t, tc.err)
			assert.NotEmpty(t, tc.err.Error())
		})
	}
}
