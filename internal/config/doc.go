// Package config loads and validates the JSON configuration of the rmlink
// command and converts it into codec and pipeline options.
package config
