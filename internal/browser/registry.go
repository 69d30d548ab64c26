package browser

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/mrkt/internal/debuglog"
)

//go:embed openers.toml
var openersTOML []byte

const urlPlaceholder = "{url}"

// Opener describes how to hand a URL to an external program.
type Opener struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	// Exec overrides the binary when the opener name is not itself a
	// program, as with the Windows "start" builtin.
	Exec        string   `toml:"exec,omitempty"`
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
}

type openersFile struct {
	Openers map[string]Opener `toml:"openers"`
}

// Registry maps opener names to their invocation.
type Registry struct {
	openers map[string]Opener
	goos    string
}

// NewRegistry loads the built-in definitions and merges the user's
// ~/.config/mrkt/openers.toml on top when present.
func NewRegistry() (*Registry, error) {
	r, err := parseRegistry(openersTOML)
	if err != nil {
		return nil, err
	}

	if home, err := os.UserHomeDir(); err == nil {
		r.loadFile(filepath.Join(home, ".config", "mrkt", "openers.toml"))
	}
	return r, nil
}

func parseRegistry(data []byte) (*Registry, error) {
	var f openersFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing opener definitions: %w", err)
	}
	if f.Openers == nil {
		f.Openers = make(map[string]Opener)
	}
	return &Registry{openers: f.Openers, goos: runtime.GOOS}, nil
}

func (r *Registry) loadFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	user, err := parseRegistry(data)
	if err != nil {
		debuglog.Warnf("ignoring %s: %v", path, err)
		return
	}
	for name, def := range user.openers {
		r.openers[name] = def
	}
}

func (r *Registry) Lookup(name string) (Opener, bool) {
	def, ok := r.openers[name]
	return def, ok
}

// Command builds the invocation of opener name for target. Unknown names
// are run as a program with the URL as the only argument.
func (r *Registry) Command(name, target string) (*exec.Cmd, error) {
	def, ok := r.openers[name]
	if !ok {
		return exec.Command(name, target), nil
	}
	if len(def.Platforms) > 0 && !slices.Contains(def.Platforms, r.goos) {
		return nil, fmt.Errorf("%s is not available on %s", name, r.goos)
	}

	bin := name
	if def.Exec != "" {
		bin = def.Exec
	}
	return exec.Command(bin, expandArgs(r.args(def), target)...), nil
}

func (r *Registry) args(def Opener) []string {
	switch r.goos {
	case "darwin":
		if len(def.ArgsDarwin) > 0 {
			return def.ArgsDarwin
		}
	case "linux":
		if len(def.ArgsLinux) > 0 {
			return def.ArgsLinux
		}
	case "windows":
		if len(def.ArgsWindows) > 0 {
			return def.ArgsWindows
		}
	}
	return def.Args
}

func expandArgs(args []string, target string) []string {
	out := make([]string, 0, len(args)+1)
	placed := false
	for _, a := range args {
		if strings.Contains(a, urlPlaceholder) {
			a = strings.ReplaceAll(a, urlPlaceholder, target)
			placed = true
		}
		out = append(out, a)
	}
	if !placed {
		out = append(out, target)
	}
	return out
}
