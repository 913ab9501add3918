package gemini

import (
	"context"
	"strconv"

	"github.com/fwojciec/harvest"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// TokensFieldName is the document field the tokens formatter writes.
const TokensFieldName = "tokens"

// TokenCounter counts tokens offline with the Gemini tokenizer of a model.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "tokenizer for %s: %v", model, err)
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the tokens of texts sent as the parts of one user turn.
// Empty texts are skipped.
func (tc *TokenCounter) CountTokens(ctx context.Context, texts ...string) (int, error) {
	parts := make([]*genai.Part, 0, len(texts))
	for _, s := range texts {
		if s != "" {
			parts = append(parts, genai.NewPartFromText(s))
		}
	}
	if len(parts) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	res, err := tc.tok.CountTokens([]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return 0, harvest.Errorf(harvest.EINTERNAL, "count tokens: %v", err)
	}
	return int(res.TotalTokens), nil
}

var _ harvest.Formatter = (*TokenFormatter)(nil)

// TokenFormatter sets the tokens field to the token count of the text and
// HTML blocks of a document.
type TokenFormatter struct {
	counter *TokenCounter
}

func NewTokenFormatter(counter *TokenCounter) *TokenFormatter {
	return &TokenFormatter{counter: counter}
}

func (f *TokenFormatter) Name() string { return TokensFieldName }

// Format leaves doc unchanged and returns a copy.
func (f *TokenFormatter) Format(ctx context.Context, doc *harvest.Document) (*harvest.Document, error) {
	var texts []string
	for _, b := range doc.Content {
		switch b.Type {
		case harvest.BlockText, harvest.BlockHTML:
			texts = append(texts, b.Content)
		}
	}
	n, err := f.counter.CountTokens(ctx, texts...)
	if err != nil {
		return nil, err
	}

	out := *doc
	out.Fields = doc.Fields.Clone()
	if out.Fields == nil {
		out.Fields = harvest.Fields{}
	}
	out.Fields[TokensFieldName] = harvest.Field{strconv.Itoa(n)}
	return &out, nil
}
