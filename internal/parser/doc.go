// Package parser turns raw switch command output into typed records.
//
// Parsing is tolerant: lines that do not have the expected shape are treated
// as non-data rather than errors, so banners, headers, prompts and paging
// artifacts never fail a lookup. All functions are pure.
package parser
