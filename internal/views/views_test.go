package views

import (
	"bytes"
	"testing"
	"time"

	"natours_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func render(t *testing.T, name string, page Page) string {
	t.Helper()
	tmpl, err := Load()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, name, page))
	return buf.String()
}

func TestLoad_AllPages(t *testing.T) {
	tmpl, err := Load()
	require.NoError(t, err)

	for _, name := range []string{"overview.html", "tour.html", "login.html", "signup.html", "account.html", "error.html"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestOverview_ListsTours(t *testing.T) {
	start := time.Date(2021, time.June, 19, 9, 0, 0, 0, time.UTC)
	out := render(t, "overview.html", Page{
		Title: "All Tours",
		Tours: []models.Tour{{
			Name:       "The Forest Hiker",
			Slug:       "the-forest-hiker",
			Difficulty: models.DifficultyEasy,
			StartDates: datatypes.JSONSlice[time.Time]{start},
		}},
	})

	assert.Contains(t, out, "Natours | All Tours")
	assert.Contains(t, out, `href="/tour/the-forest-hiker"`)
	assert.Contains(t, out, "June 2021")
	assert.Contains(t, out, "Log in")
}

func TestTour_EscapesUserContent(t *testing.T) {
	tour := &models.Tour{
		Name: "The Sea Explorer",
		Reviews: []models.Review{{
			Review: "<script>alert(1)</script>",
			Rating: 5,
			User:   &models.User{Name: "Lourdes Browning", Photo: "user-2.jpg"},
		}},
	}
	out := render(t, "tour.html", Page{Title: tour.Name, Tour: tour})

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "Log in to book tour")
}

func TestHeader_ShowsUserAndAlert(t *testing.T) {
	out := render(t, "account.html", Page{
		Title: "Your account",
		User:  &models.User{Name: "Leo Gillespie", Email: "leo@example.io", Photo: "user-1.jpg"},
		Alert: AlertFor("booking"),
	})

	assert.Contains(t, out, "<span>Leo</span>")
	assert.Contains(t, out, `value="leo@example.io"`)
	assert.Contains(t, out, "data-alert=")
	assert.Contains(t, out, "Log out")
}

func TestAlertFor_UnknownKey(t *testing.T) {
	assert.Empty(t, AlertFor("nope"))
	assert.NotEmpty(t, AlertFor("booking"))
}
