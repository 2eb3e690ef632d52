package assistant

import (
	"strings"

	"github.com/dvloznov/saldo-certo/internal/interpreter"
)

var greetingWords = map[string]struct{}{"oi": {}, "olá": {}, "ola": {}}

var greetingPairs = map[string]struct{}{"bom dia": {}, "boa tarde": {}, "boa noite": {}}

// IsGreeting reports whether text contains a greeting as whole words.
func IsGreeting(text string) bool {
	words := interpreter.Words([]rune(strings.ToLower(text)))
	for i, w := range words {
		if _, ok := greetingWords[w]; ok {
			return true
		}
		if i+1 < len(words) {
			if _, ok := greetingPairs[w+" "+words[i+1]]; ok {
				return true
			}
		}
	}
	return false
}
