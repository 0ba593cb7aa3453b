package runner

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
	"github.com/google/uuid"
)

// LoadFeatures parses every .feature file under paths into scenarios.
// A path may be a file or a directory, which is walked recursively.
func LoadFeatures(paths ...string) ([]Scenario, error) {
	files, err := featureFiles(paths)
	if err != nil {
		return nil, err
	}

	var scenarios []Scenario
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("opening feature file: %w", err)
		}
		parsed, err := ParseFeature(f, filepath.ToSlash(file))
		f.Close()
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, parsed...)
	}
	return scenarios, nil
}

// ParseFeature parses one Gherkin document. Scenario outlines expand into one
// scenario per example row; background steps are prepended to each scenario.
func ParseFeature(r io.Reader, uri string) ([]Scenario, error) {
	doc, err := gherkin.ParseGherkinDocument(r, uuid.NewString)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", uri, err)
	}
	if doc.Feature == nil {
		return nil, nil
	}

	lines := nodeLines(doc.Feature)
	pickles := gherkin.Pickles(*doc, uri, uuid.NewString)

	scenarios := make([]Scenario, 0, len(pickles))
	for _, p := range pickles {
		s := Scenario{Name: p.Name, URI: uri}
		for _, t := range p.Tags {
			s.Tags = append(s.Tags, t.Name)
		}
		for _, step := range p.Steps {
			s.Steps = append(s.Steps, step.Text)
		}
		// the last AST node is the example row for outlines, the scenario otherwise
		for i := len(p.AstNodeIds) - 1; i >= 0; i-- {
			if line, ok := lines[p.AstNodeIds[i]]; ok {
				s.Line = line
				break
			}
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func nodeLines(feature *messages.Feature) map[string]int {
	lines := make(map[string]int)
	addScenario := func(sc *messages.Scenario) {
		lines[sc.Id] = int(sc.Location.Line)
		for _, ex := range sc.Examples {
			for _, row := range ex.TableBody {
				lines[row.Id] = int(row.Location.Line)
			}
		}
	}
	for _, child := range feature.Children {
		if child.Scenario != nil {
			addScenario(child.Scenario)
		}
		if child.Rule != nil {
			for _, rc := range child.Rule.Children {
				if rc.Scenario != nil {
					addScenario(rc.Scenario)
				}
			}
		}
	}
	return lines
}

func featureFiles(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("feature path: %w", err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".feature") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}
