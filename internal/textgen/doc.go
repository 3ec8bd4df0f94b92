// Package textgen produces the user-facing text around a generated short: the
// upload title, description, and hashtags, plus plain-language explanations of
// failures.
//
// Every operation degrades to a deterministic template when the language
// model is disabled, unreachable, or returns something unusable. Callers never
// see a text-generation error.
package textgen
