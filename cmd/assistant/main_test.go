package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"carsales/internal/domain"
)

const catalogCSV = `nama,spesifikasi,keunggulan,perbedaan,url brosur,gambar,brosur
D-Max,Pickup diesel 4x4,Tangguh di medan berat,"{'Penggerak': '4x4'}",https://isuzu.example/dmax.pdf,,
MU-X,SUV tujuh penumpang,Nyaman untuk keluarga,"{'Penggerak': '4x2'}",https://isuzu.example/mux.pdf,,
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "car_data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(catalogCSV), 0o644))
	cfg := "catalog:\n  path: " + csvPath + "\nvector_store:\n  type: memory\ngenerator:\n  type: extractive\nlog:\n  level: error\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	app := newApp()
	app.Commands = []*cli.Command{{Name: "noop", Action: func(*cli.Context) error { return nil }}}

	err := app.Run([]string{"assistant", "--log-level", "verbose", "noop"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")

	assert.NoError(t, app.Run([]string{"assistant", "-l", "DEBUG", "noop"}))
}

func TestCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range newApp().Commands {
		names[c.Name] = true
	}
	assert.Equal(t, map[string]bool{"chat": true, "ask": true, "serve": true}, names)
}

func TestAskCommand(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	err := app.Run([]string{"assistant", "-c", writeConfig(t), "ask", "apa", "keunggulan", "mu-x?"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Detail Mobil yang Ditemukan:")
	assert.Contains(t, out.String(), "- MU-X\n")
}

func TestPrintAnswer(t *testing.T) {
	var buf bytes.Buffer
	printAnswer(&buf, domain.Answer{
		Text:     "Ini jawabannya.",
		Strategy: domain.StrategySemantic,
		Matches:  []domain.Match{{Car: domain.Car{Name: "Traga"}, Score: 0.61234, Scored: true}},
	})
	assert.Equal(t, "Ini jawabannya.\n\nDetail Mobil yang Ditemukan:\n- Traga (Skor Kecocokan: 0.6123)\n", buf.String())

	buf.Reset()
	printAnswer(&buf, domain.Answer{Text: "Maaf."})
	assert.Contains(t, buf.String(), "Pertanyaan Anda belum cocok dengan data teknis yang tersedia.")
}
