// Package file provides the file-based configuration adapter.
// Settings are persisted to a TOML file under the imgcrate config
// directory and exposed through dot-notation keys.
package file
