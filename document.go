package harvest

import (
	"encoding/json"
	"strings"
)

// Field holds the values extracted for one named selector.
// Values are always kept as a sequence; String collapses to a scalar.
type Field []string

// String returns the first value, or an empty string.
func (f Field) String() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// MarshalJSON encodes a single value as a scalar and anything else as an array.
func (f Field) MarshalJSON() ([]byte, error) {
	if len(f) == 1 {
		return json.Marshal(f[0])
	}
	return json.Marshal([]string(f))
}

// UnmarshalJSON accepts both the scalar and the array form.
func (f *Field) UnmarshalJSON(data []byte) error {
	if strings.HasPrefix(strings.TrimSpace(string(data)), "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Field{s}
		return nil
	}
	var ss []string
	if err := json.Unmarshal(data, &ss); err != nil {
		return err
	}
	*f = Field(ss)
	return nil
}

// Fields maps selector names to their extracted values.
// Meta selectors store their keys as "group:key".
type Fields map[string]Field

// Get returns the first value of the named field.
func (f Fields) Get(name string) string {
	return f[name].String()
}

// Clone returns a copy of f that shares no slices with it.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = append(Field(nil), v...)
	}
	return out
}

// Document is the structured result of extracting one page, or one sequence
// of paginated pages.
type Document struct {
	URL         string  `json:"url"`
	Fields      Fields  `json:"fields,omitempty"`
	ContentType string  `json:"contentType,omitempty"`
	Size        int     `json:"size,omitempty"`
	Content     []Block `json:"content"`
}

// Title returns the best available title for the document.
func (d *Document) Title() string {
	for _, name := range []string{"og:title", "twitter:title", "title"} {
		if v := d.Fields.Get(name); v != "" {
			return v
		}
	}
	return d.URL
}

// Links returns the discovered link URLs in document order.
func (d *Document) Links() []string {
	return Links(d.Content)
}
