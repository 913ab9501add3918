package gemini_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenizerModel = "gemini-2.0-flash"

func TestNewTokenCounter(t *testing.T) {
	t.Parallel()

	_, err := gemini.NewTokenCounter("no-such-model")

	assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
}

func TestTokenCounter_CountTokens(t *testing.T) {
	t.Parallel()

	tc, err := gemini.NewTokenCounter(tokenizerModel)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("nothing to count", func(t *testing.T) {
		t.Parallel()

		for _, texts := range [][]string{nil, {""}, {"", ""}} {
			n, err := tc.CountTokens(ctx, texts...)
			require.NoError(t, err)
			assert.Zero(t, n)
		}
	})

	t.Run("parts add up", func(t *testing.T) {
		t.Parallel()

		one, err := tc.CountTokens(ctx, "The quick brown fox")
		require.NoError(t, err)
		two, err := tc.CountTokens(ctx, "The quick brown fox", "jumps over the lazy dog")
		require.NoError(t, err)

		assert.Positive(t, one)
		assert.Greater(t, two, one)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := tc.CountTokens(canceled, "text")

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTokenFormatter_Format(t *testing.T) {
	t.Parallel()

	tc, err := gemini.NewTokenCounter(tokenizerModel)
	require.NoError(t, err)
	f := gemini.NewTokenFormatter(tc)

	t.Run("counts text and html blocks only", func(t *testing.T) {
		t.Parallel()

		doc := &harvest.Document{
			URL: "https://example.com",
			Content: []harvest.Block{
				harvest.Text("Hello, world!"),
				harvest.Link("https://example.com/a"),
			},
		}

		out, err := f.Format(context.Background(), doc)
		require.NoError(t, err)

		want, err := tc.CountTokens(context.Background(), "Hello, world!")
		require.NoError(t, err)
		assert.Equal(t, "tokens", f.Name())
		assert.Equal(t, strconv.Itoa(want), out.Fields.Get(gemini.TokensFieldName))
		assert.Nil(t, doc.Fields)
	})

	t.Run("empty document counts zero", func(t *testing.T) {
		t.Parallel()

		out, err := f.Format(context.Background(), &harvest.Document{URL: "https://example.com"})

		require.NoError(t, err)
		assert.Equal(t, "0", out.Fields.Get(gemini.TokensFieldName))
	})
}
