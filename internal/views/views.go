package views

import (
	"embed"
	"encoding/json"
	"html/template"
	"strings"
	"time"

	"natours_backend/internal/models"
)

//go:embed templates/*.html
var embedded embed.FS

// Page - данные любой страницы сайта
type Page struct {
	Title string
	// User - вошедший пользователь или nil
	User  *models.User
	Alert string
	Msg   string
	Tours []models.Tour
	Tour  *models.Tour
}

var alerts = map[string]string{
	"booking": "Your booking was successful! Please check your email for a confirmation. If your booking doesn't show up here immediately, please come back later.",
}

// AlertFor - текст уведомления для параметра ?alert=
func AlertFor(key string) string {
	return alerts[key]
}

// Funcs - функции, доступные страницам
var Funcs = template.FuncMap{
	"monthYear": func(t time.Time) string {
		return t.Format("January 2006")
	},
	"inc": func(i int) int { return i + 1 },
	"firstName": func(name string) string {
		if fields := strings.Fields(name); len(fields) > 0 {
			return fields[0]
		}
		return name
	},
	"json": func(v interface{}) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

// Load разбирает встроенные шаблоны страниц. Имя страницы - имя файла, например "tour.html".
func Load() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(embedded, "templates/*.html")
}
