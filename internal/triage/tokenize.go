package triage

import "strings"

// Tokenize lowercases text and collects contiguous ASCII alphanumeric runs
// of length >= 2 as a set. Presence matters, not frequency.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	lower := strings.ToLower(text)

	start := -1
	for i := 0; i <= len(lower); i++ {
		if i < len(lower) && isTokenByte(lower[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= 2 {
			tokens[lower[start:i]] = struct{}{}
		}
		start = -1
	}
	return tokens
}

func isTokenByte(c byte) bool {
	return ('a' <= c && c <= 'z') || ('0' <= c && c <= '9')
}

// OverlapRatio is the fraction of job tokens also present in the resume
// token set. An empty job token set never matches.
func OverlapRatio(resumeTokens, jobTokens map[string]struct{}) float64 {
	if len(jobTokens) == 0 {
		return 0
	}

	matched := 0
	for token := range jobTokens {
		if _, ok := resumeTokens[token]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(jobTokens))
}
