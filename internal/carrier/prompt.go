package carrier

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"stegtext/internal/services"
)

// DutchSystemPrompt instructs the model to write a Dutch economic article that
// carries the payload digits in order.
const DutchSystemPrompt = `Je bent een assistent die helpt bij het genereren van geloofwaardige economische artikelen. Het artikel moet:
- Realistisch en natuurlijk aanvoelen.
- Relevante economische thema's behandelen, zoals investeringen, kosten, subsidies, en overheidsbeleid.
- ALLEEN de opgegeven lijst van cijfers gebruiken totdat elke cijfer uit de lijst is verwerkt, in de opgegeven volgorde.
- Extra getallen mogen pas worden toegevoegd nadat alle cijfers uit de lijst zijn gebruikt.
- Cijfers logisch integreren in de context, bijvoorbeeld als statistieken of financiële gegevens.
- Een samenhangend artikel genereren in een formele en objectieve toon.
- Gebruik geen titel.
- Gebruik geen witregels, zet alle tekst in 1 paragraaf.`

// DutchUserPrompt is formatted with the quoted pair list.
const DutchUserPrompt = `Gebruik de volgende lijst van cijfers, in de gegeven volgorde:
%s

1. Gebruik ALLEEN deze cijfers totdat ze allemaal één keer zijn verwerkt.
2. Voeg pas extra getallen toe na verwerking van alle cijfers uit de lijst.`

// EnglishSystemPrompt is the English rendition of DutchSystemPrompt.
const EnglishSystemPrompt = `You are an assistant that writes credible economic news articles. The article must:
- Feel realistic and natural.
- Cover relevant economic themes such as investments, costs, subsidies and government policy.
- Use ONLY the given list of numbers, in the given order, until every number from the list has been used.
- Add other numbers only after every number from the list has been used.
- Work the numbers into the context logically, for example as statistics or financial figures.
- Be a coherent article in a formal and objective tone.
- Have no title.
- Have no blank lines; put all text in a single paragraph.`

// EnglishUserPrompt is formatted with the quoted pair list.
const EnglishUserPrompt = `Use the following list of numbers, in the given order:
%s

1. Use ONLY these numbers until each of them has been used once.
2. Add other numbers only after every number from the list has been used.`

// PromptSet is the instruction pair sent for one language.
type PromptSet struct {
	Language     language.Tag
	System       string
	UserTemplate string
}

// UserPrompt renders the user instruction for pairs.
func (p PromptSet) UserPrompt(pairs []string) string {
	return fmt.Sprintf(p.UserTemplate, FormatPairList(pairs))
}

var (
	promptTags = []language.Tag{language.Dutch, language.English}
	promptSets = []PromptSet{
		{Language: language.Dutch, System: DutchSystemPrompt, UserTemplate: DutchUserPrompt},
		{Language: language.English, System: EnglishSystemPrompt, UserTemplate: EnglishUserPrompt},
	}
	promptMatcher = language.NewMatcher(promptTags)
)

// PromptsFor returns the prompt set best matching lang (a BCP 47 tag such as
// "nl" or "en-GB"). An empty lang selects Dutch.
func PromptsFor(lang string) (PromptSet, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return promptSets[0], nil
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return PromptSet{}, services.Wrap(services.ErrConfiguration, "carrier", "prompt language", fmt.Sprintf("invalid language %q", lang), err)
	}
	_, index, confidence := promptMatcher.Match(tag)
	if confidence == language.No {
		return PromptSet{}, services.Wrap(services.ErrConfiguration, "carrier", "prompt language", fmt.Sprintf("no prompts for language %q", lang), nil)
	}
	return promptSets[index], nil
}

// FormatPairList renders pairs as a bracketed list of quoted strings, e.g.
// ['1314', '1420', '0409'].
func FormatPairList(pairs []string) string {
	quoted := make([]string, len(pairs))
	for i, pair := range pairs {
		quoted[i] = "'" + pair + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
