// Package templating bridges the script-visible template.render surface to
// github.com/flosch/pongo2/v6, a Jinja-like engine with filters (§1, §4.B).
package templating

import (
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/arclang/arc/internal/model"
)

// Render compiles text as a pongo2 template and executes it against ctx,
// a nested structure of strings/numbers/booleans/arrays/maps (§4.B, §9).
func Render(text string, ctx model.Value) (string, error) {
	tpl, err := pongo2.FromString(text)
	if err != nil {
		return "", fmt.Errorf("could not parse template: %w", err)
	}

	native, ok := ctx.Native().(map[string]any)
	if !ok && !ctx.IsNull() {
		return "", fmt.Errorf("template context must be a table, got %T", ctx.Native())
	}

	out, err := tpl.Execute(pongo2.Context(native))
	if err != nil {
		return "", fmt.Errorf("could not render template: %w", err)
	}
	return out, nil
}
