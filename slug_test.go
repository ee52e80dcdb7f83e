package magicpages

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Report - 2024", "report-2024"},
		{"Quarterly Report - undated", "quarterly-report-undated"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Crème Brûlée", "creme-brulee"},
		{"Über Maß", "uber-ma"},
		{"v1.2_final", "v1.2_final"},
		{"a///b", "a-b"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyMaxLength(t *testing.T) {
	name := Slugify(strings.Repeat("ab ", 100))
	assert.LessOrEqual(t, len(name), MaxNameLength)
	assert.False(t, strings.HasSuffix(name, "-"))
}
