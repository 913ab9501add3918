// Package harvest turns heterogeneous HTML pages into structured content
// using per-page extraction recipes, and crawls sites by following the links
// those recipes discover.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, rod/, sqlite/).
package harvest
