package harvest_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := harvest.Errorf(harvest.ENOROUTE, "no route for %q", "http://example.com/x")

	assert.Equal(t, harvest.ENOROUTE, harvest.ErrorCode(err))
	assert.Equal(t, "no route for \"http://example.com/x\"", harvest.ErrorMessage(err))
	assert.Equal(t, 500, harvest.ErrorStatus(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, harvest.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, harvest.ErrorMessage(nil))
}

func TestErrorCode_WrappedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("scrape: %w", harvest.FetchError(harvest.ETIMEOUT))

	assert.Equal(t, harvest.ETIMEOUT, harvest.ErrorCode(err))
	assert.Equal(t, harvest.MsgTimeout, harvest.ErrorMessage(err))
}

func TestErrorCode_ForeignError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, harvest.EINTERNAL, harvest.ErrorCode(err))
	assert.Equal(t, "Internal error.", harvest.ErrorMessage(err))
	assert.Equal(t, 500, harvest.ErrorStatus(err))
}

func TestFetchError(t *testing.T) {
	t.Parallel()

	t.Run("uses default messages per kind", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, harvest.MsgTooLarge, harvest.FetchError(harvest.ETOOLARGE).Message)
		assert.Equal(t, harvest.MsgMismatch, harvest.FetchError(harvest.EMISMATCH).Message)
		assert.Equal(t, harvest.MsgNotFound, harvest.FetchError(harvest.ENOTFOUND).Message)
		assert.Equal(t, harvest.MsgUnknown, harvest.FetchError(harvest.EUNKNOWN).Message)
	})

	t.Run("reports unknown failures with status 400", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, 400, harvest.FetchError(harvest.EUNKNOWN).Status)
		assert.Equal(t, 500, harvest.FetchError(harvest.ETIMEOUT).Status)
	})
}

func TestPayload(t *testing.T) {
	t.Parallel()

	t.Run("encodes kind message and status", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(harvest.FetchError(harvest.ENOTFOUND))
		require.NoError(t, err)

		assert.JSONEq(t, `{"kind":"NotFound","message":"Page not found","status":500}`, string(data))
	})

	t.Run("maps foreign errors to internal", func(t *testing.T) {
		t.Parallel()

		p := harvest.Payload(errors.New("boom"))

		assert.Equal(t, harvest.ErrorPayload{Kind: harvest.EINTERNAL, Message: "Internal error.", Status: 500}, p)
	})
}
