package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Bits", "Symbols", "Share", ""}
	rows := [][]string{
		{"0", "120", "12.50%", "####"},
		{"11", "3", "0.31%", ""},
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true}

	assert.Equal(t, []string{
		"Bits Symbols  Share",
		"   0     120 12.50% ####",
		"  11       3  0.31%",
	}, formatTable(headers, rows, rightAlign))
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Name", "N"}, [][]string{{"日本", "1"}, {"ab", "22"}}, map[int]bool{1: true})
	assert.Equal(t, []string{"Name  N", "日本  1", "ab   22"}, lines)
}
