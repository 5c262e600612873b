package generator

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/worksheet-gen/backend/internal/models"
)

// NormalizeMessage uppercases a secret message the way the cipher sees it.
func NormalizeMessage(message string) string {
	return cases.Upper(language.Und).String(message)
}

// DistinctLetters returns the distinct non-whitespace characters of message,
// uppercased, in order of first appearance.
func DistinctLetters(message string) []string {
	seen := map[rune]bool{}
	var letters []string
	for _, r := range NormalizeMessage(message) {
		if unicode.IsSpace(r) || seen[r] {
			continue
		}
		seen[r] = true
		letters = append(letters, string(r))
	}
	return letters
}

// BuildCipher assigns each distinct letter of message a unique number no
// larger than the tier's addition ceiling. Numbers start at the tier's cipher
// seed and advance by its step; once that runs past the ceiling (or hits a
// taken value) the smallest free value from 2 upward is used instead. Letters
// that find no free value are left in Unassigned.
func BuildCipher(message string, tier Tier) models.CipherMap {
	cipher := models.NewCipherMap()
	ceiling := tier.CipherCeiling()
	used := map[int]bool{}

	current := tier.CipherStart
	for _, letter := range DistinctLetters(message) {
		value := 0
		if current <= ceiling && !used[current] {
			value = current
			current += tier.CipherStep
		} else {
			value = smallestFree(used, ceiling)
		}

		if value == 0 {
			cipher.Unassigned = append(cipher.Unassigned, letter)
			continue
		}
		used[value] = true
		cipher.Values[letter] = value
		cipher.Letters = append(cipher.Letters, letter)
	}
	return cipher
}

// smallestFree returns the smallest unused value in [2, ceiling], or 0.
func smallestFree(used map[int]bool, ceiling int) int {
	for n := 2; n <= ceiling; n++ {
		if !used[n] {
			return n
		}
	}
	return 0
}
