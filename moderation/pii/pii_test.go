package pii

import (
	"testing"

	"github.com/meridian-social/aegis/moderation"

	"github.com/stretchr/testify/assert"
)

func TestRegexDetector(t *testing.T) {
	assert := assert.New(t)
	d := NewRegexDetector()

	assert.Empty(d.DetectText("a perfectly normal post about gardening"))

	occ := d.DetectText("contact me at someone@example.com")
	assert.Equal(1, len(occ))
	assert.Equal(moderation.PIIEmailAddress, occ[0].Type)

	occ = d.DetectText("call +1 (555) 123-4567 after five")
	assert.Equal(1, len(occ))
	assert.Equal(moderation.PIIPhoneNumber, occ[0].Type)

	occ = d.DetectText("dm me @some_handle for details")
	assert.Equal(1, len(occ))
	assert.Equal(moderation.PIISocialHandle, occ[0].Type)
}

func TestRegexDetectorNoDoubleCount(t *testing.T) {
	assert := assert.New(t)
	d := NewRegexDetector()

	// digits inside an email address must not also match as a phone number
	occ := d.DetectText("write to user12345678@example.com")
	assert.Equal(1, len(occ))
	assert.Equal(moderation.PIIEmailAddress, occ[0].Type)

	// the email local part must not also match as a social handle
	for _, o := range d.DetectText("email me at hi@example.org please") {
		assert.NotEqual(moderation.PIISocialHandle, o.Type)
	}
}

func TestRegexDetectorMultiple(t *testing.T) {
	assert := assert.New(t)
	d := NewRegexDetector()

	occ := d.DetectText("reach me at a@b.io or 555-123-9876 or @handle")
	types := make(map[moderation.PIIType]int)
	for _, o := range occ {
		types[o.Type]++
	}
	assert.Equal(1, types[moderation.PIIEmailAddress])
	assert.Equal(1, types[moderation.PIIPhoneNumber])
	assert.Equal(1, types[moderation.PIISocialHandle])
}
