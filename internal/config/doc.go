// Package config loads and persists the optional storepush settings file.
//
// The file carries defaults that would otherwise be repeated on every
// invocation (credentials location, default track, call timeout). Command
// line flags always take precedence over file values.
package config
