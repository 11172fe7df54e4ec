package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"

	"carsales/internal/generator"
)

func TestNewRequiresKey(t *testing.T) {
	t.Setenv("CARSALES_TEST_GEMINI_KEY", "")
	_, err := New(context.Background(), Config{APIKeyEnv: "CARSALES_TEST_GEMINI_KEY"})
	assert.ErrorIs(t, err, generator.ErrMissingAPIKey)
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{}},
	}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Halo, saya Mr.Isuzu. "),
				genai.Blob{MIMEType: "image/png"},
				genai.Text("D-Max cocok untuk Anda.\n"),
			}},
		}},
	}
	assert.Equal(t, "Halo, saya Mr.Isuzu. D-Max cocok untuk Anda.", responseText(resp))
}
