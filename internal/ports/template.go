package ports

// Template is the rendering collaborator used to materialize hook
// scripts and configuration files from live configuration data.
type Template interface {
	// Render renders the template file at templatePath against the
	// given key-value tree.
	Render(templatePath string, data map[string]any) ([]byte, error)
}
