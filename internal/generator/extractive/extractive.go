// Package extractive answers from the prompt's own product context without a
// language model. It needs no network and is used for demos and tests.
package extractive

import (
	"context"
	"fmt"
	"strings"

	"carsales/internal/domain"
	"carsales/internal/prompt"
	"carsales/internal/retrieval"
	"carsales/internal/summarizer"
)

const (
	intro       = "Berikut ringkasan data yang ditemukan:"
	noDataReply = "Mohon maaf, data untuk pertanyaan Anda belum tersedia. Silakan tanyakan tentang mobil Isuzu yang ada di katalog kami."
)

// Generator summarises the context section of a prompt.
type Generator struct {
	summarizer   domain.Summarizer
	maxSentences int
}

// New returns a generator backed by the frequency summarizer.
func New(maxSentences int) *Generator {
	return NewWithSummarizer(summarizer.NewFrequencySummarizer(), maxSentences)
}

func NewWithSummarizer(s domain.Summarizer, maxSentences int) *Generator {
	if maxSentences <= 0 {
		maxSentences = summarizer.DefaultMaxSentences
	}
	return &Generator{summarizer: s, maxSentences: maxSentences}
}

func (g *Generator) Name() string { return "extractive" }

func (g *Generator) Generate(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	section := contextSection(p)
	if section == "" || section == retrieval.NoDataContext {
		return noDataReply, nil
	}
	lines, err := g.summarizer.Summarize(section, g.maxSentences)
	if err != nil {
		return "", fmt.Errorf("summarize context: %w", err)
	}
	if len(lines) == 0 {
		return noDataReply, nil
	}
	return intro + "\n" + strings.Join(lines, "\n"), nil
}

// contextSection returns the text between the context header and the
// instructions, or the whole prompt when the header is absent.
func contextSection(p string) string {
	i := strings.Index(p, prompt.ContextHeader)
	if i < 0 {
		return strings.TrimSpace(p)
	}
	rest := p[i+len(prompt.ContextHeader):]
	if j := strings.Index(rest, "\nInstruksi:"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}
