package mock

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fixtureFile is the on-disk layout:
//
//	mocks:
//	  - capability: getUser
//	    key: 2
//	    value: {id: 2, email: janet.weaver@reqres.in}
type fixtureFile struct {
	Mocks []Registration `yaml:"mocks"`
}

// LoadFixtures reads registrations from a YAML file.
func LoadFixtures(path string) ([]Registration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mock fixtures: %w", err)
	}
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing mock fixtures %s: %w", path, err)
	}
	for i, r := range f.Mocks {
		if r.Capability == "" {
			return nil, fmt.Errorf("mock fixture %d in %s: capability is required", i, path)
		}
	}
	return f.Mocks, nil
}
