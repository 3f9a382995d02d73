// Package serverlist loads the known-servers file backing the landing page.
package serverlist

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Server is one known backend.
type Server struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type file struct {
	Servers []Server `yaml:"servers"`
}

// Load reads the server list. A missing file is not an error: the landing
// page just renders empty. A present but malformed file is an error so a
// typo does not silently drop the operator's list.
func Load(path string) ([]Server, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading server list %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("syntax error in server list %s: %w", path, err)
	}
	return f.Servers, nil
}
