package fs

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/fwojciec/harvest"
)

// WriteJSON encodes docs as an indented JSON array.
func WriteJSON(w io.Writer, docs []*harvest.Document) error {
	if docs == nil {
		docs = []*harvest.Document{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(docs)
}

// ReadJSON decodes a JSON array of documents.
func ReadJSON(r io.Reader) ([]*harvest.Document, error) {
	var docs []*harvest.Document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "invalid documents file: %v", err)
	}
	return docs, nil
}

// SaveJSON writes docs to path, replacing any existing file atomically.
func SaveJSON(path string, docs []*harvest.Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := WriteJSON(tmp, docs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadJSON reads documents previously written by SaveJSON.
func LoadJSON(path string) ([]*harvest.Document, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "documents file %q not found", path)
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}
