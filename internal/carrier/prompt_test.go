package carrier

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"stegtext/internal/services"
)

func TestPromptsFor(t *testing.T) {
	tests := []struct {
		lang string
		want language.Tag
	}{
		{lang: "", want: language.Dutch},
		{lang: "nl", want: language.Dutch},
		{lang: "nl-BE", want: language.Dutch},
		{lang: "en", want: language.English},
		{lang: "en-GB", want: language.English},
	}
	for _, tt := range tests {
		got, err := PromptsFor(tt.lang)
		if err != nil {
			t.Fatalf("PromptsFor(%q) returned error: %v", tt.lang, err)
		}
		if got.Language != tt.want {
			t.Fatalf("PromptsFor(%q) = %v, want %v", tt.lang, got.Language, tt.want)
		}
	}
}

func TestPromptsForRejectsUnknownLanguages(t *testing.T) {
	for _, lang := range []string{"ja", "not a tag!"} {
		if _, err := PromptsFor(lang); !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("PromptsFor(%q): expected ErrConfiguration, got %v", lang, err)
		}
	}
}

func TestUserPromptListsPairs(t *testing.T) {
	prompts, err := PromptsFor("en")
	if err != nil {
		t.Fatalf("PromptsFor: %v", err)
	}
	got := prompts.UserPrompt([]string{"1311", "0409"})
	if !strings.HasPrefix(got, "Use the following list of numbers, in the given order:\n['1311', '0409']\n") {
		t.Fatalf("unexpected user prompt %q", got)
	}
	if FormatPairList(nil) != "[]" {
		t.Fatalf("expected empty list rendering")
	}
}
