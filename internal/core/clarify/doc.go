// Package clarify turns raw commit failures into one human-readable message
// carrying an error code and the business-facing field code.
//
// Both translators are pure: they only read the failure records and entity
// snapshots they are given and report ("", false) when no safe translation
// exists, in which case the caller falls back to a generic message.
package clarify
