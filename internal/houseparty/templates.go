package houseparty

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

//go:embed templates/*.json
var templateFS embed.FS

// TemplateInfo describes one entry of the question catalog.
type TemplateInfo struct {
	Name  string `json:"name"`
	Games int    `json:"games"`
}

var loadTemplates = sync.OnceValues(func() (map[string][]GameSpec, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("reading templates: %w", err)
	}

	out := make(map[string][]GameSpec, len(entries))
	for _, e := range entries {
		data, err := templateFS.ReadFile(path.Join("templates", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", e.Name(), err)
		}
		var specs []GameSpec
		if err := json.Unmarshal(data, &specs); err != nil {
			return nil, fmt.Errorf("decoding template %s: %w", e.Name(), err)
		}
		out[strings.TrimSuffix(e.Name(), ".json")] = specs
	}
	return out, nil
})

// Template returns the ordered game specs of the named template.
func Template(name string) ([]GameSpec, error) {
	all, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	specs, ok := all[name]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return append([]GameSpec(nil), specs...), nil
}

// Templates lists the catalog sorted by name.
func Templates() ([]TemplateInfo, error) {
	all, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	infos := make([]TemplateInfo, 0, len(all))
	for name, specs := range all {
		infos = append(infos, TemplateInfo{Name: name, Games: len(specs)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}
