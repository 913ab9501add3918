package crawl

import (
	"fmt"

	"github.com/fwojciec/harvest"
)

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatSize formats a page size in kilobytes in human-readable form.
func FormatSize(kb int) string {
	if kb >= 1024 {
		return fmt.Sprintf("%.1f MB", float64(kb)/1024)
	}
	return fmt.Sprintf("%d KB", kb)
}

// FormatEvent renders ev as one line of CLI progress output.
func FormatEvent(ev ProgressEvent) string {
	url := TruncateURL(ev.URL, 60)
	switch ev.Type {
	case ProgressStarted:
		return fmt.Sprintf("crawling %s", url)
	case ProgressCompleted:
		return fmt.Sprintf("  [%d] depth %d %s", ev.Visited, ev.Depth, url)
	case ProgressFailed:
		return fmt.Sprintf("  [%d] depth %d %s: %s (%s)", ev.Visited, ev.Depth, url,
			harvest.ErrorMessage(ev.Error), harvest.ErrorCode(ev.Error))
	case ProgressFinished:
		return fmt.Sprintf("done: %d pages", ev.Visited)
	}
	return ""
}
