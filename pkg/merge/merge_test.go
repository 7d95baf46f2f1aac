package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFirstString(t *testing.T) {
	existing := "keep"
	empty := ""
	incoming := "new"

	assert.Equal(t, &existing, FirstString(&existing, &incoming))
	assert.Equal(t, &incoming, FirstString(nil, &incoming))
	assert.Equal(t, &incoming, FirstString(&empty, &incoming))
	assert.Nil(t, FirstString(nil, nil))
}

func TestFirstTime(t *testing.T) {
	existing := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	incoming := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, &existing, FirstTime(&existing, &incoming))
	assert.Equal(t, &incoming, FirstTime(nil, &incoming))
	assert.Nil(t, FirstTime(nil, nil))
}
