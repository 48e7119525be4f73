package dialog

import (
	"slices"
	"strconv"
	"strings"
)

var (
	confirmKeywords = []string{"yes", "y", "yeah", "yep", "yup", "sure", "ok", "okay", "true", "correct", "confirm"}
	declineKeywords = []string{"no", "n", "nope", "nah", "false", "wrong", "cancel"}
)

// recognize turns the inbound input into the result a prompt expects.
func recognize(p *Prompt, input string) (Result, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, false
	}

	switch p.Kind {
	case PromptChoice:
		return recognizeChoice(p.Choices, input)
	case PromptConfirm:
		return recognizeConfirm(input)
	default:
		return TextResult{Value: input}, true
	}
}

func recognizeChoice(choices []string, input string) (Result, bool) {
	for i, c := range choices {
		if strings.EqualFold(c, input) {
			return ChoiceResult{Index: i, Value: c}, true
		}
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(choices) {
		return ChoiceResult{Index: n - 1, Value: choices[n-1]}, true
	}
	return nil, false
}

func recognizeConfirm(input string) (Result, bool) {
	normalized := strings.ToLower(strings.Trim(input, " .!?"))
	if word, _, ok := strings.Cut(normalized, " "); ok && !matchesKeyword(normalized) {
		normalized = strings.Trim(word, ",")
	}
	switch {
	case normalized == "1" || slices.Contains(confirmKeywords, normalized):
		return ConfirmResult{Confirmed: true}, true
	case normalized == "2" || slices.Contains(declineKeywords, normalized):
		return ConfirmResult{Confirmed: false}, true
	}
	return nil, false
}

func matchesKeyword(s string) bool {
	return slices.Contains(confirmKeywords, s) || slices.Contains(declineKeywords, s)
}
