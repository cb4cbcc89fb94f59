package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeForCount(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, TagSizeSmall},
		{1, TagSizeSmall},
		{19, TagSizeSmall},
		{20, TagSizeMedium},
		{49, TagSizeMedium},
		{50, TagSizeLarge},
		{500, TagSizeLarge},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SizeForCount(tt.count), "count=%d", tt.count)
	}
}

func TestColorForCategory(t *testing.T) {
	assert.Equal(t, "#4fc08d", ColorForCategory("frontend"))
	assert.Equal(t, "#3776ab", ColorForCategory("backend"))
	assert.Equal(t, "#ff6b6b", ColorForCategory("general"))

	// 未知分类回退默认色
	assert.Equal(t, DefaultTagColor, ColorForCategory("quantum"))
	assert.Equal(t, DefaultTagColor, ColorForCategory(""))
}

func TestValidTagSource(t *testing.T) {
	assert.True(t, ValidTagSource(TagSourceManual))
	assert.True(t, ValidTagSource(TagSourceAuto))
	assert.True(t, ValidTagSource(TagSourceTrending))
	assert.False(t, ValidTagSource("imported"))
	assert.False(t, ValidTagSource(""))
}

func TestValidFrequency(t *testing.T) {
	assert.True(t, ValidFrequency(FrequencyHourly))
	assert.True(t, ValidFrequency(FrequencyDaily))
	assert.True(t, ValidFrequency(FrequencyWeekly))
	assert.False(t, ValidFrequency("monthly"))
}

func TestParseWeekday(t *testing.T) {
	d, ok := ParseWeekday("monday")
	assert.True(t, ok)
	assert.Equal(t, "Monday", d.String())

	_, ok = ParseWeekday("Monday")
	assert.False(t, ok, "weekday names are lowercase")

	_, ok = ParseWeekday("someday")
	assert.False(t, ok)
}
