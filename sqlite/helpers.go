package sqlite

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/harvest"
)

// checkTimestamp rejects stored timestamps that are not RFC 3339.
func checkTimestamp(value, column string) error {
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return harvest.Errorf(harvest.EINTERNAL, "invalid %s %q", column, value)
	}
	return nil
}

// hashContent fingerprints the page content of a document. Link markers are
// skipped, so the same page found through different links hashes equal.
func hashContent(blocks []harvest.Block) string {
	d := xxhash.New()
	for _, b := range blocks {
		if b.IsLink() {
			continue
		}
		for _, s := range []string{string(b.Type), b.Content, b.URL, b.Video, b.Tag} {
			d.WriteString(s)
			d.WriteString("\x00")
		}
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
