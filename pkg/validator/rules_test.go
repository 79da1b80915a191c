package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/validator"
)

func TestStringRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rule  validator.Rule
		valid bool
	}{
		{"required ok", validator.Required("name", "Acme"), true},
		{"required blank", validator.Required("name", "   "), false},
		{"min len counts runes", validator.MinLen("name", "Zoë", 3), true},
		{"min len too short", validator.MinLen("name", "Zo", 3), false},
		{"max len ok", validator.MaxLen("name", "Acme", 4), true},
		{"max len too long", validator.MaxLen("name", "Acme Inc", 4), false},
		{"in list", validator.InList("size", "11-50", []string{"1-10", "11-50"}), true},
		{"not in list", validator.InList("size", "huge", []string{"1-10", "11-50"}), false},
		{"max items ok", validator.MaxItems("interests", []string{"a", "b"}, 2), true},
		{"max items exceeded", validator.MaxItems("interests", []string{"a", "b", "c"}, 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, tt.rule.Check())
		})
	}
}

func TestFormatRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rule  validator.Rule
		valid bool
	}{
		{"email ok", validator.ValidEmail("email", "jane@acme.io"), true},
		{"email display name rejected", validator.ValidEmail("email", "Jane <jane@acme.io>"), false},
		{"email without dot", validator.ValidEmail("email", "jane@localhost"), false},
		{"email empty", validator.ValidEmail("email", ""), false},
		{"url https", validator.ValidURL("website", "https://acme.io/about"), true},
		{"url ftp rejected", validator.ValidURL("website", "ftp://acme.io"), false},
		{"url relative rejected", validator.ValidURL("website", "/about"), false},
		{"slug ok", validator.ValidSlug("slug", "acme-inc-2"), true},
		{"slug uppercase", validator.ValidSlug("slug", "Acme"), false},
		{"slug trailing hyphen", validator.ValidSlug("slug", "acme-"), false},
		{"timezone ok", validator.ValidTimezone("timezone", "Europe/Berlin"), true},
		{"timezone unknown", validator.ValidTimezone("timezone", "Mars/Olympus"), false},
		{"timezone empty", validator.ValidTimezone("timezone", ""), false},
		{"language ok", validator.ValidLanguage("language", "pt-BR"), true},
		{"language simple", validator.ValidLanguage("language", "en"), true},
		{"language malformed", validator.ValidLanguage("language", "not a tag!"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, tt.rule.Check())
		})
	}
}
