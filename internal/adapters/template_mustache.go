package adapters

import (
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/cbroglie/mustache"

	"pkgagent/internal/ports"
)

// MustacheTemplateAdapter renders mustache templates against a
// configuration tree.
type MustacheTemplateAdapter struct{}

func NewMustacheTemplateAdapter() MustacheTemplateAdapter {
	return MustacheTemplateAdapter{}
}

func (MustacheTemplateAdapter) Render(templatePath string, data map[string]any) ([]byte, error) {
	rendered, err := mustache.RenderFile(templatePath, data)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to render template: " + templatePath).
			WithCause(err)
	}
	return []byte(rendered), nil
}

var _ ports.Template = MustacheTemplateAdapter{}
