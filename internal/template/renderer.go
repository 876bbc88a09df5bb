package template

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Renderer renders text templates with the sprig function set. Parsed
// templates are cached by content; it is safe for concurrent use.
type Renderer struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewRenderer creates a new template renderer
func NewRenderer() *Renderer {
	return &Renderer{
		templates: make(map[string]*template.Template),
	}
}

// generateTemplateName generates a unique name for a template based on its content
func generateTemplateName(tmpl string) string {
	hash := sha256.Sum256([]byte(tmpl))
	return fmt.Sprintf("tmpl_%s", hex.EncodeToString(hash[:8]))
}

func funcMap(ctx *Context) template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["env"] = ctx.Env
	return funcs
}

// Parse validates tmpl and caches it
func (r *Renderer) Parse(tmpl string) error {
	_, err := r.lookup(tmpl, NewContext("", ""))
	return err
}

func (r *Renderer) lookup(tmpl string, ctx *Context) (*template.Template, error) {
	name := generateTemplateName(tmpl)
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := template.New(name).Option("missingkey=zero").Funcs(funcMap(ctx)).Parse(tmpl)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.templates[name] = t
	r.mu.Unlock()
	return t, nil
}

// Render renders a template with the given context
func (r *Renderer) Render(tmpl string, ctx *Context) (string, error) {
	if ctx.Env == nil {
		ctx.Env = func(string) string { return "" }
	}
	t, err := r.lookup(tmpl, ctx)
	if err != nil {
		return "", err
	}
	// env is bound per call, the cached template may have been parsed with another context
	t, err = t.Clone()
	if err != nil {
		return "", err
	}
	t.Funcs(template.FuncMap{"env": ctx.Env})

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}
