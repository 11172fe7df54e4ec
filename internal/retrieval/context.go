package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"carsales/internal/catalog"
	"carsales/internal/domain"
)

// NoDataContext is the context given to the model when nothing matched.
const NoDataContext = "Tidak ditemukan data teknis yang relevan untuk pertanyaan ini."

// BuildContext renders the matched cars as the product-database section of
// the prompt. Cars found by name carry the raw brochure URL, cars found by
// similarity a markdown link.
func BuildContext(r domain.Retrieval) string {
	if len(r.Matches) == 0 {
		return NoDataContext
	}
	blocks := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		brochure := m.Car.BrochureURL
		if r.Strategy == domain.StrategySemantic {
			brochure = fmt.Sprintf("[Klik di sini](%s)", m.Car.BrochureURL)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Mobil %s:\n", m.Car.Name)
		fmt.Fprintf(&b, "Spesifikasi: %s\n", m.Car.Specification)
		fmt.Fprintf(&b, "Keunggulan: %s\n", m.Car.Advantages)
		fmt.Fprintf(&b, "Perbedaan:\n%s\n\n", catalog.FormatDifferences(m.Car.Differences))
		fmt.Fprintf(&b, "Link Brosur: %s", brochure)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// CarList returns the lower-cased car names, sorted and comma separated.
func CarList(cars []domain.Car) string {
	names := make([]string, len(cars))
	for i, c := range cars {
		names[i] = strings.ToLower(c.Name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
