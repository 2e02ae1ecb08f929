package enrich

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFile writes body to name inside dir and returns the path.
func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// metroCSV builds a semicolon-delimited station table with the given number
// of line columns. Each station is name, lat, lon and the 1-based lines it serves.
func metroCSV(lines int, stations ...station) string {
	var b strings.Builder
	b.WriteString("English transcription;latitude;longitude")
	for _, c := range MetroLineColumns(lines) {
		b.WriteString(";" + c)
	}
	b.WriteString("\n")
	for _, s := range stations {
		b.WriteString(s.name + ";" + s.lat + ";" + s.lon)
		for n := 1; n <= lines; n++ {
			v := "0"
			for _, l := range s.serves {
				if l == n {
					v = "1"
				}
			}
			b.WriteString(";" + v)
		}
		b.WriteString("\n")
	}
	return b.String()
}

type station struct {
	name     string
	lat, lon string
	serves   []int
}
