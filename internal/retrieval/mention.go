package retrieval

import (
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

var squash = strings.NewReplacer("-", "", " ", "")

// IsMentioned reports whether question refers to the car called name.
// A squashed substring match ("dmax" in "harga dmax?") wins first; otherwise any
// shared word counts, so "mu x" and "MU-X" both hit, and so does a lone "x".
func IsMentioned(name, question string) bool {
	name = strings.ToLower(name)
	question = strings.ToLower(question)

	cleanName := squash.Replace(name)
	if cleanName == "" {
		return false
	}
	if strings.Contains(squash.Replace(question), cleanName) {
		return true
	}

	nameTokens := wordRe.FindAllString(name, -1)
	if len(nameTokens) == 0 {
		return false
	}
	questionTokens := make(map[string]struct{})
	for _, tok := range wordRe.FindAllString(question, -1) {
		questionTokens[tok] = struct{}{}
	}
	for _, tok := range nameTokens {
		if _, ok := questionTokens[tok]; ok {
			return true
		}
	}
	return false
}
