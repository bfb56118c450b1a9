package generate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxInstructionRunes = 2000
	MaxCharacters       = 50
	maxCharacterRunes   = 100
)

var ErrPromptInjection = errors.New("instruction looks like a prompt injection")

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`forget\s+(everything|all)|override\s+(your|the)\s+instructions|` +
		`new\s+instructions)`,
)

// ValidateInstruction checks the author's free-text direction. An empty
// instruction is fine.
func ValidateInstruction(s string) error {
	if n := utf8.RuneCountInString(s); n > MaxInstructionRunes {
		return fmt.Errorf("instruction is %d characters, limit is %d", n, MaxInstructionRunes)
	}
	if injectionPattern.MatchString(s) {
		return ErrPromptInjection
	}
	return nil
}

// ValidateCharacters checks the character names attached to a request.
func ValidateCharacters(names []string) error {
	if len(names) > MaxCharacters {
		return fmt.Errorf("%d characters given, limit is %d", len(names), MaxCharacters)
	}
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return errors.New("character name is empty")
		}
		if utf8.RuneCountInString(trimmed) > maxCharacterRunes {
			return fmt.Errorf("character name %.20q... is too long", trimmed)
		}
	}
	return nil
}
