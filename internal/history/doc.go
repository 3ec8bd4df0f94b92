// Package history persists every generated short in a local SQLite database.
//
// Entries record where a clip came from (URL, video ID, original title), the
// segment that was cut and how it was chosen, the output file, the suggested
// upload text, and whether the short has been uploaded. Uploading itself
// happens outside shortsmith; MarkUploaded records the result.
//
// The schema is embedded and versioned. A version mismatch is reported as
// ErrSchemaMismatch rather than migrated; users remove the database to reset.
package history
