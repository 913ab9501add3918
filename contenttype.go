package harvest

import (
	"mime"
	"strings"
)

// ContentTypeAll disables content-type filtering.
const ContentTypeAll = "all"

// ContentTypeGroups maps convenience group names to MIME types.
var ContentTypeGroups = map[string][]string{
	"video": {
		"video/x-flv",
		"video/mp4",
		"application/x-mpegURL",
		"video/MP2T",
		"video/3gpp",
		"video/quicktime",
		"video/x-msvideo",
		"video/x-ms-wmv",
	},
	"xml": {
		"text/xml",
		"application/xml",
	},
	"image": {
		"image/bmp",
		"image/cis-cod",
		"image/gif",
		"image/ief",
		"image/jpeg",
		"image/png",
		"image/pipeg",
		"image/svg+xml",
		"image/tiff",
		"image/x-cmu-raster",
		"image/x-portable-anymap",
		"image/x-portable-bitmap",
		"image/x-portable-graymap",
		"image/x-rgb",
		"image/x-xbitmap",
		"image/x-xpixmap",
	},
	"text": {
		"text/css",
		"text/html",
		"text/plain",
		"text/richtext",
		"text/webviewhtml",
		"text/x-component",
	},
	"json": {
		"application/json",
		"application/javascript",
	},
}

// ExpandContentTypes resolves group names into MIME types. The second
// return value is true when no filtering should happen.
func ExpandContentTypes(names []string) ([]string, bool) {
	if len(names) == 0 {
		return nil, true
	}
	var out []string
	for _, name := range names {
		if name == ContentTypeAll {
			return nil, true
		}
		if group, ok := ContentTypeGroups[name]; ok {
			out = append(out, group...)
			continue
		}
		out = append(out, name)
	}
	return out, false
}

// AcceptsContentType reports whether a Content-Type header value is allowed
// by the given names. Comparison ignores parameters and case.
func AcceptsContentType(names []string, header string) bool {
	allowed, all := ExpandContentTypes(names)
	if all {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(header, ";")[0])
	}
	for _, t := range allowed {
		if strings.EqualFold(t, mediaType) {
			return true
		}
	}
	return false
}
