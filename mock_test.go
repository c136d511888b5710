package deps

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/tattocau/frida/io2"
)

type fakeRunner struct {
	calls    []*RunOpt
	runFn    func(opt *RunOpt) error
	outputFn func(opt *RunOpt) ([]byte, error)
}

func (r *fakeRunner) Run(opt *RunOpt) error {
	r.calls = append(r.calls, opt)
	if r.runFn != nil {
		return r.runFn(opt)
	}
	return nil
}

func (r *fakeRunner) Output(opt *RunOpt) ([]byte, error) {
	r.calls = append(r.calls, opt)
	if r.outputFn != nil {
		return r.outputFn(opt)
	}
	return nil, nil
}

type fakeBuildSystem struct {
	configured  []*ConfigureOpt
	installed   []string
	configureFn func(opt *ConfigureOpt) error
	installFn   func(buildDir string) error
}

func (b *fakeBuildSystem) Configure(opt *ConfigureOpt) error {
	b.configured = append(b.configured, opt)
	if b.configureFn != nil {
		return b.configureFn(opt)
	}
	return nil
}

func (b *fakeBuildSystem) Install(buildDir string, env []string) error {
	b.installed = append(b.installed, buildDir)
	if b.installFn != nil {
		return b.installFn(buildDir)
	}
	return nil
}

type fakeSource struct {
	cloned []string
}

func (s *fakeSource) CloneIfAbsent(name, destDir string) error {
	s.cloned = append(s.cloned, name)
	return io2.Mkdirp(destDir)
}

// fakeCompressor records the file list of every staging dir it is given,
// keyed by the final archive name.
type fakeCompressor struct {
	archives map[string][]string
	contents map[string]string
	staging  []string
	// failPrefix makes Compress leave a truncated file and fail for archives
	// whose name starts with it.
	failPrefix string
}

func newFakeCompressor() *fakeCompressor {
	return &fakeCompressor{archives: map[string][]string{}, contents: map[string]string{}}
}

func (c *fakeCompressor) Ext() string {
	return ".fake"
}

func (c *fakeCompressor) Compress(stagingDir, outputPath string, level int) error {
	c.staging = append(c.staging, stagingDir)
	name := strings.Replace(filepath.Base(outputPath), ".partial", "", 1)
	if c.failPrefix != "" && strings.HasPrefix(name, c.failPrefix) {
		if err := io2.WriteFile(outputPath, "trunc"); err != nil {
			return err
		}
		return errors.New("disk full")
	}
	var files []string
	err := filepath.WalkDir(stagingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		files = append(files, rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		c.contents[name+":"+rel] = string(data)
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(files)
	c.archives[name] = files
	return io2.WriteFile(outputPath, "archive")
}

// fakeLocator counts lookups so memoization can be checked.
type fakeLocator struct {
	vsDir        string
	sdks         map[SDKTag]SDK
	bootstrapDir string
	calls        map[string]int
}

func (l *fakeLocator) count(key string) {
	if l.calls == nil {
		l.calls = map[string]int{}
	}
	l.calls[key]++
}

func (l *fakeLocator) LocateCompilerSuite() (string, error) {
	l.count("vs")
	if l.vsDir == "" {
		return "", missingDependency(VisualStudioName)
	}
	return l.vsDir, nil
}

func (l *fakeLocator) LocatePlatformSDK(tag SDKTag) (SDK, error) {
	l.count(string(tag))
	sdk, ok := l.sdks[tag]
	if !ok {
		return SDK{}, missingDependency(SDKName(tag))
	}
	return sdk, nil
}

func (l *fakeLocator) LocateBootstrapBundle() (string, error) {
	l.count("bootstrap")
	if l.bootstrapDir == "" {
		return "", missingDependency("bootstrap toolchain")
	}
	return l.bootstrapDir, nil
}

const testMSVCVersion = "14.16.27023"

// newTestLocator lays out a fake Visual Studio and SDK install under a temp
// dir.
func newTestLocator(t *testing.T) *fakeLocator {
	t.Helper()
	dir := t.TempDir()
	vsDir := filepath.Join(dir, "VS")
	mustMkdir(t, filepath.Join(vsDir, "VC", "Tools", "MSVC", "14.10.25017"))
	mustMkdir(t, filepath.Join(vsDir, "VC", "Tools", "MSVC", testMSVCVersion))
	bootstrapDir := filepath.Join(dir, "toolchain")
	mustMkdir(t, filepath.Join(bootstrapDir, "bin"))
	return &fakeLocator{
		vsDir: vsDir,
		sdks: map[SDKTag]SDK{
			SDKWinXP: {Dir: filepath.Join(dir, "v7.1A"), Version: "7.1.51106"},
			SDKWin10: {Dir: filepath.Join(dir, "Windows Kits", "10"), Version: "10.0.17134.0"},
		},
		bootstrapDir: bootstrapDir,
	}
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := io2.Mkdirp(dir); err != nil {
		t.Fatal(err)
	}
}

func mustWriteFile(t *testing.T, file, data string) {
	t.Helper()
	mustMkdir(t, filepath.Dir(file))
	if err := io2.WriteFile(file, data); err != nil {
		t.Fatal(err)
	}
}

func mustReadFile(t *testing.T, file string) string {
	t.Helper()
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
