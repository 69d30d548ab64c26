// Package browser opens article links in an external program.
package browser

import (
	"fmt"
	"os/exec"

	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/debuglog"
	"github.com/pders01/mrkt/internal/validation"
)

type Launcher struct {
	opener    string
	registry  *Registry
	validator *validation.URLValidator
	lookPath  func(string) (string, error)
	start     func(*exec.Cmd) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	registry, err := NewRegistry()
	if err != nil {
		debuglog.Warnf("opener definitions unavailable: %v", err)
		registry = &Registry{openers: make(map[string]Opener)}
	}

	l := &Launcher{
		registry:  registry,
		validator: validation.NewArticleURLValidator(),
		lookPath:  exec.LookPath,
		start:     startDetached,
	}
	l.opener = l.pickOpener(cfg.Browser)
	return l
}

// pickOpener prefers the configured default, then the first installed
// command from the fallback list.
func (l *Launcher) pickOpener(cfg config.BrowserConfig) string {
	candidates := append([]string{cfg.DefaultOpener}, cfg.Commands...)
	for _, name := range candidates {
		if name == "" {
			continue
		}
		bin := name
		if def, ok := l.registry.Lookup(name); ok && def.Exec != "" {
			bin = def.Exec
		}
		if _, err := l.lookPath(bin); err == nil {
			return name
		}
	}
	return cfg.DefaultOpener
}

// Opener returns the program used to open links.
func (l *Launcher) Opener() string {
	return l.opener
}

// Command validates target and builds the command without starting it.
func (l *Launcher) Command(target string) (*exec.Cmd, error) {
	normalized, err := l.validator.ValidateAndNormalize(target)
	if err != nil {
		return nil, fmt.Errorf("refusing to open %q: %w", target, err)
	}
	if l.opener == "" {
		return nil, fmt.Errorf("no application found to open URLs")
	}
	return l.registry.Command(l.opener, normalized)
}

func (l *Launcher) Open(target string) error {
	cmd, err := l.Command(target)
	if err != nil {
		return err
	}
	debuglog.Infof("opening %s with %s", target, l.opener)
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.opener, err)
	}
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
