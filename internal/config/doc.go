// Package config loads pwncheck's YAML configuration and applies it over a
// goBreach.Config.
//
// Fields are pointers so an absent key is distinguishable from a zero value.
// Precedence, lowest first: built-in defaults, the global file, the local
// file, then command-line flags applied by the caller.
package config
