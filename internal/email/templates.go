package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
)

//go:embed templates/*.html
var embedded embed.FS

// TemplateManager хранит разобранные шаблоны писем по имени файла без .html
type TemplateManager struct {
	mu     sync.RWMutex
	byName map[string]*template.Template
}

func NewTemplateManager() *TemplateManager {
	return &TemplateManager{byName: map[string]*template.Template{}}
}

// NewDefaultTemplateManager загружает встроенные welcome и passwordReset
func NewDefaultTemplateManager() (*TemplateManager, error) {
	tm := NewTemplateManager()
	if err := tm.loadFS(embedded, "templates/*.html"); err != nil {
		return nil, err
	}
	return tm, nil
}

func (tm *TemplateManager) Render(name string, data TemplateData) (string, error) {
	tm.mu.RLock()
	tpl := tm.byName[name]
	tm.mu.RUnlock()
	if tpl == nil {
		return "", fmt.Errorf("email: unknown template %q", name)
	}

	var out bytes.Buffer
	if err := tpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("email: render %s: %w", name, err)
	}
	return out.String(), nil
}

func (tm *TemplateManager) AddTemplate(name, text string) error {
	tpl, err := template.New(name).Parse(text)
	if err != nil {
		return fmt.Errorf("email: parse %s: %w", name, err)
	}

	tm.mu.Lock()
	tm.byName[name] = tpl
	tm.mu.Unlock()
	return nil
}

func (tm *TemplateManager) loadFS(fsys fs.FS, pattern string) error {
	files, err := fs.Glob(fsys, pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("email: no templates match %s", pattern)
	}

	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("email: read %s: %w", file, err)
		}
		if err := tm.AddTemplate(strings.TrimSuffix(path.Base(file), ".html"), string(raw)); err != nil {
			return err
		}
	}
	return nil
}
