package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/harvest"
	"google.golang.org/genai"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Separator joins translatable segments into a single request.
const Separator = "\n\n|||\n\n"

// translatedFields are the document fields translated along with the
// text blocks, in segment order.
var translatedFields = []string{
	"general:description", "og:description", "twitter:description",
	"title", "og:title", "twitter:title",
}

var _ harvest.Formatter = (*Translator)(nil)

// Translator is a formatter translating a document's text blocks and its
// title and description fields with Google Gemini.
type Translator struct {
	client *genai.Client
	model  string
	lang   string
}

// NewTranslator creates a Translator into lang, e.g. "Spanish" or "es".
func NewTranslator(client *genai.Client, model, lang string) *Translator {
	if model == "" {
		model = DefaultModel
	}
	return &Translator{client: client, model: model, lang: lang}
}

// Name returns "translate".
func (t *Translator) Name() string {
	return "translate"
}

// Format returns a translated copy of doc.
func (t *Translator) Format(ctx context.Context, doc *harvest.Document) (*harvest.Document, error) {
	if t.lang == "" {
		return nil, harvest.Errorf(harvest.EINVALID, "target language required")
	}
	segments := Segments(doc)
	if len(segments) == 0 {
		return doc, nil
	}
	if t.client == nil {
		return nil, harvest.Errorf(harvest.EINTERNAL, "gemini client not configured")
	}

	result, err := t.client.Models.GenerateContent(ctx, t.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: strings.Join(segments, Separator)}},
		}},
		BuildConfig(t.lang),
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, harvest.Errorf(harvest.EINTERNAL, "gemini returned nil result")
	}

	return ApplySegments(doc, strings.Split(result.Text(), Separator))
}

// BuildConfig returns the GenerateContentConfig for translation calls.
func BuildConfig(lang string) *genai.GenerateContentConfig {
	temp := float32(0.2)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: fmt.Sprintf("Translate the user's text into %s. The text consists of sections separated by the line %q. "+
					"Keep every separator exactly as it is and return the same number of sections in the same order. "+
					"Return only the translation.", lang, strings.TrimSpace(Separator)),
			}},
		},
		Temperature: &temp,
	}
}

// Segments returns the translatable strings of doc: its text blocks in
// order followed by the present translated fields.
func Segments(doc *harvest.Document) []string {
	var out []string
	for _, b := range doc.Content {
		if b.Type == harvest.BlockText {
			out = append(out, b.Content)
		}
	}
	for _, name := range translatedFields {
		if v := doc.Fields.Get(name); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ApplySegments returns a copy of doc with its translatable strings replaced
// by translated, which must line up with Segments(doc).
func ApplySegments(doc *harvest.Document, translated []string) (*harvest.Document, error) {
	if want := len(Segments(doc)); len(translated) != want {
		return nil, harvest.Errorf(harvest.EINTERNAL, "translation returned %d sections, want %d", len(translated), want)
	}

	out := *doc
	out.Fields = doc.Fields.Clone()
	out.Content = append([]harvest.Block(nil), doc.Content...)

	i := 0
	for j, b := range out.Content {
		if b.Type == harvest.BlockText {
			out.Content[j].Content = strings.TrimSpace(translated[i])
			i++
		}
	}
	for _, name := range translatedFields {
		if doc.Fields.Get(name) != "" {
			out.Fields[name] = harvest.Field{strings.TrimSpace(translated[i])}
			i++
		}
	}
	return &out, nil
}
