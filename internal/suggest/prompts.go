package suggest

import (
	"fmt"

	"github.com/worksheet-gen/backend/internal/models"
)

var themeHints = map[models.Theme]string{
	models.ThemeDefault:   "encouraging classroom phrases",
	models.ThemeMinecraft: "block building, mining, crafting and exploring",
	models.ThemeCandyland: "sweets, candy, colors and treats",
	models.ThemeSuperhero: "heroes, powers, rescues and teamwork",
	models.ThemeDinosaur:  "dinosaurs, fossils, volcanoes and prehistoric life",
}

func SystemPrompt() string {
	return `You write short secret messages for elementary school math worksheets.

Students solve arithmetic problems, turn each answer into a letter with a code key,
and read the hidden message. Every distinct letter in a message needs its own number,
so messages with fewer distinct letters fit easier worksheets.

RULES:
- Use only the letters A-Z and single spaces
- Keep each message between 2 and 5 words
- Messages must be positive and age appropriate
- Never repeat a message within one response

You must respond with valid JSON only. No markdown, no explanation outside the JSON.`
}

// BuildUserPrompt asks for count messages using at most maxLetters distinct
// letters.
func BuildUserPrompt(theme models.Theme, gradeLevel string, maxLetters, count int) string {
	hint, ok := themeHints[theme]
	if !ok {
		hint = themeHints[models.ThemeDefault]
	}
	if gradeLevel == "" {
		gradeLevel = "elementary"
	}

	return fmt.Sprintf(`Write exactly %d secret messages.

Theme: %s
Grade level: %s
Maximum distinct letters per message: %d

Respond with this exact JSON structure:
{
  "messages": ["...", "..."]
}`, count, hint, gradeLevel, maxLetters)
}
