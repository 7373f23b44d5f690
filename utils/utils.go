package utils

// PercentFromTo returns the percent change from `from` to `to`.
// A zero `from` yields 0 so unknown reference values never divide by zero.
func PercentFromTo(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100.0
}

// Chunk splits a slice of ids into chunks of at most chunkSize.
// ["A", "B", "C"] with size 2 -> [["A", "B"], ["C"]]
func Chunk(ids []string, chunkSize int) [][]string {
	if chunkSize <= 0 {
		return [][]string{ids}
	}
	var chunks [][]string
	for i := 0; i < len(ids); i += chunkSize {
		end := i + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[i:end])
	}
	return chunks
}
