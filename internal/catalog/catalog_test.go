package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"carsales/internal/domain"
)

const sampleCSV = `nama,spesifikasi,keunggulan,perbedaan,url brosur,gambar,brosur,harga
D-Max,"Mesin 1.9L VGS Turbo","Tangguh di segala medan","{'Mesin': '1.9L', 'Penggerak': '4x4', 'Turbo': True}",https://isuzu.example/dmax.pdf,img/dmax.png,brosur/dmax.pdf,500jt
,,,,,,,
MU-X,"Mesin 1.9L","SUV keluarga","{""Kursi"": 7, ""Mesin"": ""1.9L""}",https://isuzu.example/mux.pdf,img/mux.png,brosur/mux.pdf,600jt
`

func TestParseCSV(t *testing.T) {
	cars, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, cars, 2)

	dmax := cars[0]
	assert.Equal(t, 0, dmax.ID)
	assert.Equal(t, "D-Max", dmax.Name)
	assert.Equal(t, "Mesin 1.9L VGS Turbo", dmax.Specification)
	assert.Equal(t, "Tangguh di segala medan", dmax.Advantages)
	assert.Equal(t, []domain.Attribute{
		{Key: "Mesin", Value: "1.9L"},
		{Key: "Penggerak", Value: "4x4"},
		{Key: "Turbo", Value: "True"},
	}, dmax.Differences)
	assert.Equal(t, "https://isuzu.example/dmax.pdf", dmax.BrochureURL)
	assert.Equal(t, "img/dmax.png", dmax.ImagePath)
	assert.Equal(t, "brosur/dmax.pdf", dmax.BrochurePath)
	assert.Equal(t, map[string]string{"harga": "500jt"}, dmax.Extra)

	mux := cars[1]
	assert.Equal(t, 1, mux.ID, "blank rows do not consume ids")
	assert.Equal(t, []domain.Attribute{{Key: "Kursi", Value: "7"}, {Key: "Mesin", Value: "1.9L"}}, mux.Differences)
}

func TestHeaderVariants(t *testing.T) {
	cars, err := FromRows([][]string{
		{" Nama ", "URL_Brosur", "Url-Brosur"},
		{"Traga", "a", "b"},
	})
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, "Traga", cars[0].Name)
	assert.Equal(t, "b", cars[0].BrochureURL, "later duplicate column wins")
}

func TestMissingNameColumn(t *testing.T) {
	_, err := FromRows([][]string{{"spesifikasi"}, {"x"}})
	assert.ErrorIs(t, err, ErrMissingNameColumn)

	_, err = FromRows(nil)
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestMalformedDifferencesNamesRow(t *testing.T) {
	_, err := FromRows([][]string{
		{"nama", "perbedaan"},
		{"D-Max", "{'Mesin': '1.9L'"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedDifferences)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"nama", "spesifikasi", "perbedaan"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Elf", "Truk ringan", "{'Muatan': '2 ton'}"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	cars, err := Load(path, Options{})
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, "Elf", cars[0].Name)
	assert.Equal(t, []domain.Attribute{{Key: "Muatan", Value: "2 ton"}}, cars[0].Differences)
}

func TestLoadCSVFileAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "car_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	cars, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Len(t, cars, 2)

	_, err = Load(filepath.Join(dir, "car_data.json"), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEmbeddingText(t *testing.T) {
	car := domain.Car{
		Name:          "D-Max",
		Specification: "1.9L",
		Advantages:    "Irit",
		Differences:   []domain.Attribute{{Key: "Mesin", Value: "1.9L"}, {Key: "Kabin", Value: "Double"}},
		BrochureURL:   "https://isuzu.example/dmax.pdf",
	}
	want := `Nama Mobil: D-Max
Mobil D-Max adalah kendaraan dari Isuzu yang memiliki spesifikasi dan keunggulan sebagai berikut.
Spesifikasi: 1.9L
Keunggulan: Irit
Perbedaan:
- Mesin: 1.9L
- Kabin: Double
Link Brosur: https://isuzu.example/dmax.pdf
`
	assert.Equal(t, want, EmbeddingText(car))
	assert.Equal(t, []string{want}, EmbeddingTexts([]domain.Car{car}))
}
