// Package prompt renders the instruction block sent to the language model.
package prompt

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// Default is the Mr.Isuzu sales assistant prompt.
const Default = `
Kamu adalah Mr.Isuzu, asisten AI ramah dan cerdas yang membantu pelanggan memahami dan membandingkan berbagai macam mobil Isuzu

Pertanyaan pengguna:
"{{.Question}}"

Context dari database produk:
{{.Context}}

Instruksi:
1. Jika pengguna bertanya mengenai jenis mobil apa saja yang dimiliki maka berikan list nama mobil berikut: {{.CarList}}. Akhiri jawaban.
2. Jika pengguna meminta penjelasan tentang mobil, jelaskan spesifikasinya, keunggulannya, dan fitur unik dari data yang tersedia.
3. Jika pengguna menanyakan perbandingan antara mobil, gunakan bagian "Perbedaan" dari masing-masing mobil dan tampilkan dalam bentuk tabel.
4. Setelah tabel perbandingan, berikan ringkasan dalam bentuk paragraf: sampaikan poin-poin utama yang membedakan kedua mobil secara jelas.
5. Jika tidak ditemukan data yang cocok, sampaikan dengan sopan bahwa datanya belum tersedia dan hindari asumsi teknis yang tidak akurat.
6. Jika terdapat data dari context, persilakan pengguna untuk mengunduh brosur (sertakan 'Link Brosur' jika tersedia) dan melihat gambar dari mobil yang ditampilkan.
7. Jika menyertakan link brosur, gunakan format markdown dengan teks yang jelas dan enak dibaca. Contoh: [Klik di sini untuk melihat brosur](URL)
   Hindari menampilkan URL mentah.


Tuliskan jawaban dalam bahasa Indonesia yang sopan, jelas, dan mudah dipahami. Hindari istilah teknis yang rumit kecuali diperlukan.
`

// ContextHeader precedes the product context in the default prompt. The
// extractive generator uses it to find the context again.
const ContextHeader = "Context dari database produk:"

// Input is the data a template is rendered with.
type Input struct {
	Question string
	Context  string
	CarList  string
}

// Template is a parsed prompt template.
type Template struct {
	tmpl *template.Template
}

// New parses text as a prompt template.
func New(text string) (*Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("prompt: empty template")
	}
	t, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("prompt: parse: %w", err)
	}
	return &Template{tmpl: t}, nil
}

// Load reads a template from path, or returns the default one when path is empty.
func Load(path string) (*Template, error) {
	if path == "" {
		return New(Default)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompt: read %s: %w", path, err)
	}
	return New(string(data))
}

// Render executes the template. The question is inserted verbatim.
func (t *Template) Render(in Input) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, in); err != nil {
		return "", fmt.Errorf("prompt: render: %w", err)
	}
	return b.String(), nil
}
