package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"carsales/internal/domain"
)

// DefaultMaxSentences is used when a caller asks for a non-positive count.
const DefaultMaxSentences = 5

// FrequencySummarizer ranks sentences by word frequency (stopwords filtered).
type FrequencySummarizer struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewFrequencySummarizer creates a frequency-based sentence ranker summarizer.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`),
		stopwords:    defaultStopwords(),
	}
}

// Summarize returns up to maxSentences of the highest scoring sentences of
// text, in their original order. Blank text yields no sentences.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) ([]string, error) {
	return s.rank(text, maxSentences), nil
}

func (s *FrequencySummarizer) rank(text string, maxSentences int) []string {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range s.tokens(sent) {
			if _, ok := s.stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		toks := s.tokens(sent)
		sscore := 0.0
		for _, tok := range toks {
			sscore += freq[tok]
		}
		// length normalisation
		if l := float64(len(toks)); l > 0 {
			sscore /= math.Sqrt(l)
		}
		scores[i] = pair{i, sscore}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return out
}

// SplitSentences breaks text at line ends and at '.', '!' or '?' followed by
// whitespace or the end of text, so "1.9L" stays whole. Blank pieces are dropped.
func SplitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	flush := func(end int) {
		if sent := strings.TrimSpace(string(runes[start:end])); sent != "" {
			out = append(out, sent)
		}
		start = end
	}
	for i, r := range runes {
		switch {
		case r == '\n':
			flush(i + 1)
		case r == '.' || r == '!' || r == '?':
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush(i + 1)
			}
		}
	}
	flush(len(runes))
	return out
}

func (s *FrequencySummarizer) tokens(text string) []string {
	return s.tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		// Indonesian
		"dan", "atau", "yang", "di", "ke", "dari", "untuk", "dengan", "pada", "ini", "itu", "adalah", "dalam", "juga", "akan", "tidak", "ada", "sebagai", "oleh", "lebih", "serta", "bisa", "dapat", "karena", "agar", "para", "sangat", "jika", "saja", "apa",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var _ domain.Summarizer = (*FrequencySummarizer)(nil)
