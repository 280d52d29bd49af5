// Package manifest parses and mutates the dependency-manifest formats
// spec §6 recognizes: package.json (encoding/json — the universal wire
// format for that ecosystem, same choice the whole pack makes for its own
// JSON bodies), Cargo.toml/pyproject.toml (github.com/BurntSushi/toml,
// grounded on emergent-company-specmcp's go.mod), and PEP 508
// requirements*.txt (line-oriented, stdlib bufio).
package manifest

import (
	"bufio"
	"encoding/json"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/engineerr"
)

// Kind identifies a manifest format.
type Kind string

const (
	KindPackageJSON    Kind = "package_json"
	KindCargoToml      Kind = "cargo_toml"
	KindPyprojectToml  Kind = "pyproject_toml"
	KindRequirementsTxt Kind = "requirements_txt"
	KindPipfile        Kind = "pipfile"
	KindSetupPy        Kind = "setup_py"
)

// DetectKind maps a manifest file's base name to its Kind.
func DetectKind(fileName string) (Kind, bool) {
	switch {
	case fileName == "package.json":
		return KindPackageJSON, true
	case fileName == "Cargo.toml":
		return KindCargoToml, true
	case fileName == "pyproject.toml":
		return KindPyprojectToml, true
	case strings.HasPrefix(fileName, "requirements") && strings.HasSuffix(fileName, ".txt"):
		return KindRequirementsTxt, true
	case fileName == "Pipfile":
		return KindPipfile, true
	case fileName == "setup.py":
		return KindSetupPy, true
	default:
		return "", false
	}
}

// PackageJSON is the subset of fields spec §6 names.
type PackageJSON struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Dependencies     map[string]string `json:"dependencies,omitempty"`
	DevDependencies  map[string]string `json:"devDependencies,omitempty"`
	PeerDependencies map[string]string `json:"peerDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
	Scripts          map[string]string `json:"scripts,omitempty"`
	Raw              map[string]interface{} `json:"-"`
}

// ParsePackageJSON parses package.json, keeping the raw object so unknown
// fields survive a round trip.
func ParsePackageJSON(content []byte) (*PackageJSON, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, engineerr.Wrap(err, engineerr.ParseFailed, "invalid package.json")
	}
	var pkg PackageJSON
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil, engineerr.Wrap(err, engineerr.ParseFailed, "invalid package.json")
	}
	pkg.Raw = raw
	return &pkg, nil
}

// Marshal re-serializes, applying section updates onto the raw object so
// fields outside the dependency sections survive; json.MarshalIndent
// re-sorts keys and re-indents the whole document.
func (pkg *PackageJSON) Marshal() ([]byte, error) {
	if pkg.Raw == nil {
		pkg.Raw = map[string]interface{}{}
	}
	setSection(pkg.Raw, "dependencies", pkg.Dependencies)
	setSection(pkg.Raw, "devDependencies", pkg.DevDependencies)
	setSection(pkg.Raw, "peerDependencies", pkg.PeerDependencies)
	setSection(pkg.Raw, "optionalDependencies", pkg.OptionalDependencies)
	return json.MarshalIndent(pkg.Raw, "", "  ")
}

func setSection(raw map[string]interface{}, key string, section map[string]string) {
	if section == nil {
		return
	}
	out := make(map[string]interface{}, len(section))
	for k, v := range section {
		out[k] = v
	}
	raw[key] = out
}

// ApplyDependencyUpdate mutates the dependencies section named by u.Section
// ("dependencies"/"devDependencies"/...). Kind DepRemove drops the entry;
// DepAdd/DepUpdate set or overwrite it.
func (pkg *PackageJSON) ApplyDependencyUpdate(u editplan.DependencyUpdate) error {
	section := sectionFor(pkg, u.Section)
	if section == nil {
		return engineerr.New(engineerr.InvalidRequest, "unknown package.json section %q", u.Section)
	}
	switch u.Kind {
	case editplan.DepRemove:
		delete(*section, u.Name)
	default:
		(*section)[u.Name] = u.Version
	}
	return nil
}

func sectionFor(pkg *PackageJSON, name string) *map[string]string {
	switch name {
	case "dependencies", "":
		if pkg.Dependencies == nil {
			pkg.Dependencies = map[string]string{}
		}
		return &pkg.Dependencies
	case "devDependencies":
		if pkg.DevDependencies == nil {
			pkg.DevDependencies = map[string]string{}
		}
		return &pkg.DevDependencies
	case "peerDependencies":
		if pkg.PeerDependencies == nil {
			pkg.PeerDependencies = map[string]string{}
		}
		return &pkg.PeerDependencies
	case "optionalDependencies":
		if pkg.OptionalDependencies == nil {
			pkg.OptionalDependencies = map[string]string{}
		}
		return &pkg.OptionalDependencies
	default:
		return nil
	}
}

// CargoToml is the subset of Cargo.toml spec §6 names.
type CargoToml struct {
	Package map[string]interface{}          `toml:"package,omitempty"`
	Dependencies map[string]interface{}      `toml:"dependencies,omitempty"`
	DevDependencies map[string]interface{}   `toml:"dev-dependencies,omitempty"`
	Workspace *CargoWorkspace                `toml:"workspace,omitempty"`
}

// CargoWorkspace holds the members array spec §4.E.6 rewrites on package rename.
type CargoWorkspace struct {
	Members []string `toml:"members,omitempty"`
}

// ParseCargoToml parses Cargo.toml via BurntSushi/toml.
func ParseCargoToml(content []byte) (*CargoToml, error) {
	var c CargoToml
	if _, err := toml.Decode(string(content), &c); err != nil {
		return nil, engineerr.Wrap(err, engineerr.ParseFailed, "invalid Cargo.toml")
	}
	return &c, nil
}

// RewriteWorkspaceMember replaces oldPath with newPath in the workspace
// members array (spec §4.E.6 / §8 scenario 3), preserving member order.
func (c *CargoToml) RewriteWorkspaceMember(oldPath, newPath string) bool {
	if c.Workspace == nil {
		return false
	}
	changed := false
	for i, m := range c.Workspace.Members {
		if m == oldPath {
			c.Workspace.Members[i] = newPath
			changed = true
		}
	}
	return changed
}

// RewritePathDependency updates a path-dependency table's "path" field
// (e.g. `crate_b = { path = "../crate_b" }`) when the target crate moved.
func (c *CargoToml) RewritePathDependency(crateName, newRelPath string) bool {
	dep, ok := c.Dependencies[crateName]
	if !ok {
		return false
	}
	tbl, ok := dep.(map[string]interface{})
	if !ok {
		return false
	}
	if _, ok := tbl["path"]; !ok {
		return false
	}
	tbl["path"] = newRelPath
	return true
}

// PyprojectToml is the PEP 621 + Poetry subset spec §6 names.
type PyprojectToml struct {
	Project *struct {
		Name         string   `toml:"name"`
		Dependencies []string `toml:"dependencies,omitempty"`
	} `toml:"project,omitempty"`
	Tool *struct {
		Poetry *struct {
			Name         string                 `toml:"name"`
			Dependencies map[string]interface{} `toml:"dependencies,omitempty"`
		} `toml:"poetry,omitempty"`
	} `toml:"tool,omitempty"`
}

// ParsePyprojectToml parses pyproject.toml, recognizing both PEP 621
// [project] and Poetry [tool.poetry] dependency tables (spec §6).
func ParsePyprojectToml(content []byte) (*PyprojectToml, error) {
	var p PyprojectToml
	if _, err := toml.Decode(string(content), &p); err != nil {
		return nil, engineerr.Wrap(err, engineerr.ParseFailed, "invalid pyproject.toml")
	}
	return &p, nil
}

// RequirementLine is one parsed PEP 508 requirements.txt entry.
type RequirementLine struct {
	Raw     string
	Name    string
	Comment bool
}

// ParseRequirementsTxt parses a requirements*.txt file line by line.
func ParseRequirementsTxt(content []byte) ([]RequirementLine, error) {
	var out []RequirementLine
	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			out = append(out, RequirementLine{Raw: line, Comment: true})
			continue
		}
		name := trimmed
		for _, sep := range []string{"==", ">=", "<=", "~=", "!=", ">", "<", "[", " "} {
			if idx := strings.Index(name, sep); idx >= 0 {
				name = name[:idx]
			}
		}
		out = append(out, RequirementLine{Raw: line, Name: strings.TrimSpace(name)})
	}
	if err := scanner.Err(); err != nil {
		return nil, engineerr.Wrap(err, engineerr.ParseFailed, "invalid requirements.txt")
	}
	return out, nil
}

// NormalizePyName normalizes PEP 503 package-name comparison: case-folds
// and treats "-" and "_" as equivalent (spec §4.F Python rule).
func NormalizePyName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	return name
}

// FormatRequirementsTxt re-renders requirement lines back to text.
func FormatRequirementsTxt(lines []RequirementLine) []byte {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Raw
	}
	return []byte(strings.Join(parts, "\n") + "\n")
}

// SortedKeys is a small helper used when rendering deterministic dependency
// orderings for tests.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
