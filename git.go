package deps

import (
	"fmt"
	"path/filepath"

	"github.com/tattocau/frida/io2"
)

const DefaultSourceURL = "https://github.com/frida/%s.git"

// SourceProvider fetches module sources.
type SourceProvider interface {
	// CloneIfAbsent clones the module into destDir unless destDir already
	// has content. Sources are shared by every variant.
	CloneIfAbsent(name, destDir string) error
}

// GitSource clones modules with git, submodules included.
type GitSource struct {
	Runner Runner
	// URLFormat takes the module name, e.g. https://github.com/frida/%s.git.
	URLFormat string
}

func NewGitSource(runner Runner, urlFormat string) *GitSource {
	if urlFormat == "" {
		urlFormat = DefaultSourceURL
	}
	return &GitSource{Runner: runner, URLFormat: urlFormat}
}

func (g *GitSource) RepoURL(name string) string {
	return fmt.Sprintf(g.URLFormat, name)
}

func (g *GitSource) CloneIfAbsent(name, destDir string) error {
	if io2.DirectoryHasContent(destDir) {
		return nil
	}
	parent := filepath.Dir(destDir)
	if err := io2.Mkdirp(parent); err != nil {
		return err
	}
	return g.Runner.Run(&RunOpt{
		Name: "git",
		Args: []string{"clone", "--recurse-submodules", g.RepoURL(name), destDir},
		Dir:  parent,
	})
}
