package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{in: "The Forest Hiker", want: "the-forest-hiker"},
		{in: "  The Sea   Explorer ", want: "the-sea-explorer"},
		{in: "Café Crème!", want: "cafe-creme"},
		{in: "The Snow-Adventurer", want: "the-snow-adventurer"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestRoundRating(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 4.7, RoundRating(4.666666))
	assert.Equal(t, 4.0, RoundRating(4.0))
	assert.Equal(t, 3.5, RoundRating(3.45))
}

func TestChangedPasswordAfter(t *testing.T) {
	t.Parallel()

	issued := time.Now().Add(-time.Hour)

	u := &User{}
	assert.False(t, u.ChangedPasswordAfter(issued))

	changed := time.Now()
	u.PasswordChangedAt = &changed
	assert.True(t, u.ChangedPasswordAfter(issued))

	// смена в ту же секунду, что и выдача токена, не считается
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	sameSecond := base.Add(800 * time.Millisecond)
	u.PasswordChangedAt = &sameSecond
	assert.False(t, u.ChangedPasswordAfter(base.Add(100*time.Millisecond)))
}

func TestEnums(t *testing.T) {
	t.Parallel()

	assert.True(t, UserRoleLeadGuide.IsValid())
	assert.False(t, UserRole("root").IsValid())
	assert.True(t, DifficultyMedium.IsValid())
	assert.False(t, Difficulty("hard").IsValid())
}

func TestDurationWeeks(t *testing.T) {
	t.Parallel()

	tour := &Tour{Duration: 14}
	assert.Equal(t, 2.0, tour.DurationWeeks())
}

func TestTourJSON_DurationWeeks(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal([]Tour{{Name: "The Forest Hiker", Duration: 5, Price: 397}})
	require.NoError(t, err)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "The Forest Hiker", got[0]["name"])
	assert.InDelta(t, 5.0/7, got[0]["durationWeeks"], 1e-9)
	assert.Contains(t, got[0], "id")
	assert.NotContains(t, got[0], "secretTour")

	// без duration в проекции поля нет
	raw, err = json.Marshal(&Tour{Name: "The Sea Explorer"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "durationWeeks")
}
