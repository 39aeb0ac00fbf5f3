package naming

import (
	"errors"
	"testing"
)

// TestValidatePublisherAccepts verifies that well-formed publisher handles pass.
func TestValidatePublisherAccepts(t *testing.T) {
	for _, s := range []string{"acme", "acme2", "a", "0xbeef", "acme-labs", "acme.io", "my-org.dev", "a-b.c-d"} {
		if err := ValidatePublisher(s); err != nil {
			t.Errorf("ValidatePublisher(%q) error = %v, want nil", s, err)
		}
	}
}

// TestValidatePublisherRejects verifies that uppercase letters, leading or
// trailing separators, doubled separators and digits after a separator fail.
func TestValidatePublisherRejects(t *testing.T) {
	for _, s := range []string{"", "Acme", "acmE", "-acme", "acme-", ".acme", "acme.", "acme--labs", "acme..io", "acme-.io", "acme-2", "acme.9", "acme_labs", "ac me", "acme/labs"} {
		if err := ValidatePublisher(s); err == nil {
			t.Errorf("ValidatePublisher(%q) = nil, want error", s)
		}
	}
}

// TestValidatePluginNameAccepts verifies that well-formed plugin names pass.
func TestValidatePluginNameAccepts(t *testing.T) {
	for _, s := range []string{"my-plugin", "plugin", "p2", "svg-export-v2", "x"} {
		if err := ValidatePluginName(s); err != nil {
			t.Errorf("ValidatePluginName(%q) error = %v, want nil", s, err)
		}
	}
}

// TestValidatePluginNameRejects verifies that plugin names reject dots in
// addition to everything the publisher grammar rejects.
func TestValidatePluginNameRejects(t *testing.T) {
	for _, s := range []string{"", "My-Plugin", "my.plugin", "-plugin", "plugin-", "my--plugin", "plugin-2", "@acme/plugin", "my_plugin"} {
		if err := ValidatePluginName(s); err == nil {
			t.Errorf("ValidatePluginName(%q) = nil, want error", s)
		}
	}
}

// TestInvalidNameErrorCarriesDetails verifies that the error exposes the
// offending value and grammar and matches ErrInvalidName.
func TestInvalidNameErrorCarriesDetails(t *testing.T) {
	err := ValidatePluginName("Bad")
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("errors.Is(%v, ErrInvalidName) = false", err)
	}
	var nameErr *InvalidNameError
	if !errors.As(err, &nameErr) {
		t.Fatalf("errors.As(%v, *InvalidNameError) = false", err)
	}
	if nameErr.Value != "Bad" || nameErr.Grammar != PluginName {
		t.Errorf("InvalidNameError = %+v, want Value=Bad Grammar=%q", nameErr, PluginName)
	}

	err = ValidatePublisher("-x")
	if !errors.As(err, &nameErr) || nameErr.Grammar != Publisher {
		t.Errorf("ValidatePublisher grammar = %v, want %q", err, Publisher)
	}
}
