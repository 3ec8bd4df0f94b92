// Package textutil provides small text helpers shared by text generation,
// the API, and the CLI: rune-safe truncation, case-insensitive matching, and
// hashtag normalization.
package textutil
