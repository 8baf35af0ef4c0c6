// Package config loads booklist.toml.
//
// Values are resolved in this order, later sources winning: built-in
// defaults, the TOML file, the login file (credentials only, and only when
// the file carries none) and BOOKLIST_* environment variables.
package config
