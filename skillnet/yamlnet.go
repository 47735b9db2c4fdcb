package skillnet

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAMLFile reads a single skill-net literal from a YAML file, the way
// skill.ScanDir reads skill.yaml: a plain yaml.Unmarshal into the literal
// struct followed by Validate.
func LoadYAMLFile(path string) (*Net, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("skillnet: read %q: %w", path, err)
	}
	var lit Literal
	if err := yaml.Unmarshal(data, &lit); err != nil {
		return nil, fmt.Errorf("skillnet: parse %q: %w", path, err)
	}
	return FromLiteral(lit)
}

// DumpYAML renders the net's wire form as YAML, e.g. for writing out a
// rule-compiler result for inspection or version control.
func (sn *Net) DumpYAML() ([]byte, error) {
	return yaml.Marshal(sn.ToLiteral())
}

// ManifestFile is a multi-net YAML manifest: a named list of skill-net
// literals loaded together, mirroring how the workspace skills/ directory
// holds many skill.yaml files side by side.
type ManifestFile struct {
	Nets []Literal `yaml:"nets"`
}

// LoadManifest reads a multi-net YAML manifest and returns every net it
// contains, validated individually. A single bad net aborts the whole load
// (unlike skill.ScanDir's per-skill tolerance) because nets in a manifest
// are typically meant to be composed together by a gate manager, and a
// partially-loaded composition is a worse failure mode than refusing to
// start.
func LoadManifest(path string) ([]*Net, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("skillnet: read manifest %q: %w", path, err)
	}
	var mf ManifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("skillnet: parse manifest %q: %w", path, err)
	}
	nets := make([]*Net, 0, len(mf.Nets))
	names := make(map[string]struct{}, len(mf.Nets))
	for _, lit := range mf.Nets {
		if _, dup := names[lit.Name]; dup {
			return nil, fmt.Errorf("skillnet: manifest %q: duplicate net name %q", path, lit.Name)
		}
		names[lit.Name] = struct{}{}
		sn, err := FromLiteral(lit)
		if err != nil {
			return nil, fmt.Errorf("skillnet: manifest %q: %w", path, err)
		}
		nets = append(nets, sn)
	}
	return nets, nil
}
