package chores

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWindow(t *testing.T) {
	w := DefaultWindow()

	assert.Equal(t, "2025-04-13", FormatDate(w.Start))
	assert.Equal(t, "2025-05-31", FormatDate(w.End))
	assert.Equal(t, 49, w.Days())
}

func TestWindowStep(t *testing.T) {
	w := DefaultWindow()

	next, ok := w.Step(w.Start, 1)
	assert.True(t, ok)
	assert.Equal(t, "2025-04-14", FormatDate(next))

	same, ok := w.Step(w.Start, -1)
	assert.False(t, ok)
	assert.Equal(t, w.Start, same)

	_, ok = w.Step(w.End, 1)
	assert.False(t, ok)

	may1, ok := w.Step(w.Start, 18)
	assert.True(t, ok)
	assert.Equal(t, "2025-05-01", FormatDate(may1))
}

func TestNewWindow(t *testing.T) {
	w, err := NewWindow("2025-07-01", "2025-07-03")
	require.NoError(t, err)
	assert.Equal(t, 3, w.Days())

	_, err = NewWindow("2025-07-03", "2025-07-01")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = NewWindow("July", "2025-07-01")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
