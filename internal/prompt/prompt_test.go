package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplate(t *testing.T) {
	tmpl, err := Load("")
	require.NoError(t, err)

	out, err := tmpl.Render(Input{
		Question: "apa beda <D-Max> & MU-X?",
		Context:  "Mobil D-Max:\nSpesifikasi: Pickup",
		CarList:  "d-max, mu-x",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Kamu adalah Mr.Isuzu")
	assert.Contains(t, out, "\"apa beda <D-Max> & MU-X?\"")
	assert.Contains(t, out, ContextHeader+"\nMobil D-Max:\nSpesifikasi: Pickup\n")
	assert.Contains(t, out, "berikan list nama mobil berikut: d-max, mu-x. Akhiri jawaban.")
	for i := 1; i <= 7; i++ {
		assert.Contains(t, out, "\n"+string(rune('0'+i))+". ", "instruction %d", i)
	}
	assert.NotContains(t, out, "\n8. ")
	assert.True(t, strings.HasSuffix(out, "kecuali diperlukan.\n"))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("Q={{.Question}} C={{.Context}} L={{.CarList}}"), 0o644))

	tmpl, err := Load(path)
	require.NoError(t, err)
	out, err := tmpl.Render(Input{Question: "q", Context: "c", CarList: "l"})
	require.NoError(t, err)
	assert.Equal(t, "Q=q C=c L=l", out)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.tmpl"))
	assert.Error(t, err)

	_, err = New("   ")
	assert.Error(t, err)

	_, err = New("{{.Question")
	assert.Error(t, err)

	tmpl, err := New("{{.Unknown}}")
	require.NoError(t, err)
	_, err = tmpl.Render(Input{})
	assert.Error(t, err)
}
