package sizefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	testCases := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"ноль байт", 0, "0.0 B"},
		{"байты", 512, "512.0 B"},
		{"килобайты", 2048, "2.0 KB"},
		{"мегабайты", 5 * 1024 * 1024, "5.0 MB"},
		{"гигабайты", 3 * 1024 * 1024 * 1024, "3.0 GB"},
		{"терабайты", 2 * 1024 * 1024 * 1024 * 1024, "2.0 TB"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Format(tc.bytes))
		})
	}
}
