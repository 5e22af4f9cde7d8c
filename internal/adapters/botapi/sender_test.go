package botapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatAddress(t *testing.T) {
	testCases := []struct {
		name     string
		target   string
		wantID   int64
		wantName string
	}{
		{"числовой идентификатор", "-1001234567890", -1001234567890, ""},
		{"username без собаки", "news_channel", 0, "@news_channel"},
		{"username с собакой", "@news_channel", 0, "@news_channel"},
		{"положительный идентификатор", "42", 42, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, name := chatAddress(tc.target)
			assert.Equal(t, tc.wantID, id)
			assert.Equal(t, tc.wantName, name)
		})
	}
}
