package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/uppbod/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "record", ID: "L1"}
		assert.Equal(t, "record with ID L1 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		wrapped := fmt.Errorf("show: %w", pkgerrors.NewNotFoundError("record", "L2"))
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("sort_direction", "sideways", "must be asc or desc")
		assert.Equal(t, "validation failed for field sort_direction: must be asc or desc", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "no live fields"}
		assert.Equal(t, "validation failed: no live fields", err.Error())
	})
}

func TestMissingIdentityError(t *testing.T) {
	err := &pkgerrors.MissingIdentityError{
		Index:  3,
		Fields: []string{"lotId", "lotName"},
		RunID:  "run-1",
	}
	assert.Contains(t, err.Error(), "#3")
	assert.Contains(t, err.Error(), "lotId")
	assert.Contains(t, err.Error(), "run-1")
	assert.True(t, pkgerrors.IsMissingIdentity(err))
	assert.False(t, pkgerrors.IsMalformedDate(err))
}

func TestDuplicateIdentityError(t *testing.T) {
	err := &pkgerrors.DuplicateIdentityError{Identity: "foo_2024-05-01_1300", Index: 4, First: 1}
	assert.Equal(t, `listing #4 duplicates identity "foo_2024-05-01_1300" of listing #1`, err.Error())
	assert.True(t, errors.Is(err, pkgerrors.ErrDuplicateIdentity))
}

func TestMalformedDateError(t *testing.T) {
	t.Run("with identity", func(t *testing.T) {
		base := errors.New("parsing time")
		err := &pkgerrors.MalformedDateError{Identity: "L1", Field: "auctionDate", Value: "soon", Err: base}
		assert.Contains(t, err.Error(), `"soon"`)
		assert.Contains(t, err.Error(), "L1")
		assert.Equal(t, base, err.Unwrap())
		assert.True(t, pkgerrors.IsMalformedDate(err))
	})

	t.Run("without identity", func(t *testing.T) {
		err := &pkgerrors.MalformedDateError{Field: "auctionDate", Value: "soon"}
		assert.Equal(t, `malformed date "soon" in field auctionDate`, err.Error())
	})
}

func TestEmptySnapshotError(t *testing.T) {
	err := &pkgerrors.EmptySnapshotError{Source: "island", RunID: "r1", Fetched: 12, Policy: "skip"}
	assert.Contains(t, err.Error(), "island")
	assert.Contains(t, err.Error(), "fetched 12")
	assert.True(t, pkgerrors.IsEmptySnapshot(err))
}

func TestAPIError(t *testing.T) {
	t.Run("server error is unavailable", func(t *testing.T) {
		err := pkgerrors.NewAPIError("island", 503, "maintenance")
		assert.Contains(t, err.Error(), "503")
		assert.True(t, pkgerrors.IsSourceUnavailable(err))
	})

	t.Run("client error is not unavailable", func(t *testing.T) {
		err := pkgerrors.NewAPIError("island", 400, "bad query")
		assert.False(t, pkgerrors.IsSourceUnavailable(err))
	})

	t.Run("wrap helper", func(t *testing.T) {
		base := errors.New("connection reset")
		err := pkgerrors.WrapAPI("island", 0, base)
		var apiErr *pkgerrors.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, base, apiErr.Unwrap())
		assert.Nil(t, pkgerrors.WrapAPI("island", 0, nil))
	})
}

func TestLockError(t *testing.T) {
	err := &pkgerrors.LockError{Path: "/tmp/store.csv.lock"}
	assert.Contains(t, err.Error(), "held by another process")
	assert.True(t, pkgerrors.IsLocked(err))

	cause := errors.New("permission denied")
	err = &pkgerrors.LockError{Path: "/tmp/store.csv.lock", Err: cause}
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIOError(t *testing.T) {
	t.Run("unwrap", func(t *testing.T) {
		base := errors.New("disk full")
		err := pkgerrors.NewIOError("write", "/data/store.csv", base)
		assert.Equal(t, base, err.Unwrap())
		assert.Contains(t, err.Error(), "/data/store.csv")
	})

	t.Run("wrap helper", func(t *testing.T) {
		err := pkgerrors.WrapIO("rename", "/data/store.csv", errors.New("cross-device link"))
		ioErr, ok := err.(*pkgerrors.IOError)
		require.True(t, ok)
		assert.Equal(t, "rename", ioErr.Operation)
		assert.Nil(t, pkgerrors.WrapIO("rename", "x", nil))
	})
}

func TestParseError(t *testing.T) {
	t.Run("with line", func(t *testing.T) {
		err := &pkgerrors.ParseError{Format: "csv", File: "store.csv", Line: 7, Message: "wrong number of fields"}
		assert.Equal(t, "parse error in csv at store.csv:7: wrong number of fields", err.Error())
	})

	t.Run("without file", func(t *testing.T) {
		err := pkgerrors.WrapParse("json", "", errors.New("unexpected EOF"))
		assert.Equal(t, "json parse error: unexpected EOF", err.Error())
	})
}

func TestResourceError(t *testing.T) {
	err := pkgerrors.WrapResource("load", "store", "auctions.csv", pkgerrors.ErrNotFound)
	var resErr *pkgerrors.ResourceError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "load", resErr.Operation)
	assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	assert.Equal(t, "failed to load store auctions.csv: not found", err.Error())
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("store", "dsn cannot be empty", nil)
	assert.Equal(t, "configuration error in store: dsn cannot be empty", err.Error())
	assert.Nil(t, err.Unwrap())
}
