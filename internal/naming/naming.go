// Package naming enforces the grammars for publisher handles and plugin names.
//
// Both grammars are lowercase alphanumeric groups. Publishers may join groups
// with "-" or "."; plugin names only with "-". A separator must be followed by
// a letter, so "acme-2" and "my.9x" are rejected.
package naming

import (
	"errors"
	"fmt"
	"regexp"
)

// Grammar identifies which naming rule a value was checked against.
type Grammar string

const (
	Publisher  Grammar = "publisher"
	PluginName Grammar = "plugin name"
)

// ErrInvalidName is the sentinel wrapped by every InvalidNameError.
var ErrInvalidName = errors.New("invalid name")

var (
	publisherPattern  = regexp.MustCompile(`^[a-z0-9]+(?:[-.][a-z][a-z0-9]*)*$`)
	pluginNamePattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z][a-z0-9]*)*$`)
)

// InvalidNameError carries the offending value and the grammar it failed.
type InvalidNameError struct {
	Value   string
	Grammar Grammar
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid %s %q: use lowercase letters and digits; separators must be followed by a letter", e.Grammar, e.Value)
}

func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

// ValidatePublisher checks s against the publisher grammar.
func ValidatePublisher(s string) error {
	if !publisherPattern.MatchString(s) {
		return &InvalidNameError{Value: s, Grammar: Publisher}
	}
	return nil
}

// ValidatePluginName checks s against the plugin-name grammar.
func ValidatePluginName(s string) error {
	if !pluginNamePattern.MatchString(s) {
		return &InvalidNameError{Value: s, Grammar: PluginName}
	}
	return nil
}
