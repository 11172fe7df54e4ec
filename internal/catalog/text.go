package catalog

import (
	"fmt"

	"carsales/internal/domain"
)

// EmbeddingText renders the document indexed for semantic search.
func EmbeddingText(car domain.Car) string {
	return fmt.Sprintf(`Nama Mobil: %s
Mobil %s adalah kendaraan dari Isuzu yang memiliki spesifikasi dan keunggulan sebagai berikut.
Spesifikasi: %s
Keunggulan: %s
Perbedaan:
%s
Link Brosur: %s
`, car.Name, car.Name, car.Specification, car.Advantages, FormatDifferences(car.Differences), car.BrochureURL)
}

// EmbeddingTexts renders EmbeddingText for every car, in order.
func EmbeddingTexts(cars []domain.Car) []string {
	texts := make([]string, len(cars))
	for i, c := range cars {
		texts[i] = EmbeddingText(c)
	}
	return texts
}
