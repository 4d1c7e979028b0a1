package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAcceptsKnownNamesAndCodes(t *testing.T) {
	assert.True(t, Validate("Total Population"))
	assert.True(t, Validate("B01003_001E"))
}

func TestValidateAcceptsWellFormedUnknownCode(t *testing.T) {
	assert.True(t, Validate("B99999_001E"))
}

func TestValidateRejectsGarbage(t *testing.T) {
	assert.False(t, Validate("not a variable"))
	assert.False(t, Validate("b01003_001e"))
}

func TestCodeForHumanNameRoundTrip(t *testing.T) {
	assert.Equal(t, "B01003_001E", CodeForHumanName("Total Population"))
	assert.Equal(t, "B01003_001E", CodeForHumanName("B01003_001E"))
}

func TestResolveNamesMixedInput(t *testing.T) {
	codes := ResolveNames([]string{"Total Population", "B19013_001E"})
	assert.Equal(t, []string{"B01003_001E", "B19013_001E"}, codes)
}
