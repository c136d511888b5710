package deps

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mgenware/j9/v3"
	"github.com/tattocau/frida/io2"
)

const (
	sdkStagingName       = "sdk-windows"
	toolchainStagingName = "toolchain-windows"
)

// Packager assembles the toolchain and SDK archives from the install
// prefixes and the bootstrap bundle. It only looks at the file trees, never
// at how they were produced.
type Packager struct {
	Tunnel     *j9.Tunnel
	Layout     *Layout
	Classifier *Classifier
	Compressor Compressor
	// Level is passed through to the compressor, 0 (fastest) to 9 (smallest).
	Level int
	Now   func() time.Time
}

// ArchivePaths returns the dated output paths for today.
func (p *Packager) ArchivePaths() (toolchainPath, sdkPath string) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	date := now().Format("20060102")
	ext := p.Compressor.Ext()
	toolchainPath = filepath.Join(p.Layout.RootDir, "toolchain-"+date+"-windows-x86"+ext)
	sdkPath = filepath.Join(p.Layout.RootDir, "sdk-"+date+"-windows-any"+ext)
	return toolchainPath, sdkPath
}

// Package builds both archives. The toolchain is taken from the static
// prefix of platform and configuration, the SDK from every static prefix.
// Nothing is done when both archives already exist.
func (p *Packager) Package(platform PlatformEnum, configuration ConfigurationEnum) (string, string, error) {
	toolchainPath, sdkPath := p.ArchivePaths()
	if io2.FileExists(toolchainPath) && io2.FileExists(sdkPath) {
		logVerbose(p.Tunnel, "Packages already exist, skipping")
		return toolchainPath, sdkPath, nil
	}

	logWarning(p.Tunnel, "About to assemble:\n\t* "+filepath.Base(toolchainPath)+"\n\t* "+filepath.Base(sdkPath))
	logWarning(p.Tunnel, "Determining what to include...")

	sdkFiles, err := p.SDKFiles()
	if err != nil {
		return "", "", err
	}
	toolchainFiles, err := p.ToolchainFiles(NewVariant(platform, configuration, RuntimeStatic))
	if err != nil {
		return "", "", err
	}
	mixinFiles, err := p.BootstrapFiles()
	if err != nil {
		return "", "", err
	}

	logWarning(p.Tunnel, "Copying files...")
	tmpDir, err := os.MkdirTemp("", "fdeps-package")
	if err != nil {
		return "", "", err
	}
	defer os.RemoveAll(tmpDir)

	sdkStage := filepath.Join(tmpDir, sdkStagingName)
	toolchainStage := filepath.Join(tmpDir, toolchainStagingName)
	if err := copyFiles(p.Layout.PrefixesDir, sdkFiles, sdkStage, SDKDest); err != nil {
		return "", "", err
	}
	if err := copyFiles(p.Layout.PrefixesDir, toolchainFiles, toolchainStage, toolchainDest); err != nil {
		return "", "", err
	}
	if err := copyFiles(p.Layout.BootstrapDir, mixinFiles, toolchainStage, identityDest); err != nil {
		return "", "", err
	}

	logWarning(p.Tunnel, "Compressing...")
	// Both archives are rebuilt together, an archive from an earlier run must
	// not survive next to a fresh one.
	if err := removeFiles(toolchainPath, sdkPath); err != nil {
		return "", "", err
	}
	if err := p.compress(toolchainStage, toolchainPath); err != nil {
		removeFiles(toolchainPath, sdkPath)
		return "", "", err
	}
	if err := p.compress(sdkStage, sdkPath); err != nil {
		removeFiles(toolchainPath, sdkPath)
		return "", "", err
	}

	logWarning(p.Tunnel, "All done.")
	return toolchainPath, sdkPath, nil
}

// compress writes the archive under a partial name and renames it to
// outputPath only once the compressor succeeded.
func (p *Packager) compress(stagingDir, outputPath string) error {
	partial := partialPath(outputPath, p.Compressor.Ext())
	if err := removeFiles(partial); err != nil {
		return err
	}
	if err := p.Compressor.Compress(stagingDir, partial, p.Level); err != nil {
		removeFiles(partial)
		return err
	}
	return os.Rename(partial, outputPath)
}

// partialPath keeps ext last so 7z does not append its own extension:
// sdk-20180731-windows-any.exe -> sdk-20180731-windows-any.partial.exe
func partialPath(outputPath, ext string) string {
	return strings.TrimSuffix(outputPath, ext) + ".partial" + ext
}

func removeFiles(files ...string) error {
	for _, f := range files {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// SDKFiles lists SDK files relative to the prefixes dir: everything the
// classifier accepts from each static prefix, plus the static libraries of
// the sibling dynamic prefix.
func (p *Packager) SDKFiles() ([]RelPath, error) {
	prefixes, err := p.staticPrefixes()
	if err != nil {
		return nil, err
	}

	var files []RelPath
	for _, v := range prefixes {
		static, err := walkFiles(p.Layout.PrefixesDir, v.String(), p.Classifier.IsSDKFile)
		if err != nil {
			return nil, err
		}
		files = append(files, static...)

		dynamicLibDir := filepath.Join(v.Sibling(RuntimeDynamic).String(), "lib")
		dynamic, err := walkFiles(p.Layout.PrefixesDir, dynamicLibDir, func(f RelPath) bool {
			return f.Ext() == "a"
		})
		if err != nil {
			return nil, err
		}
		files = append(files, dynamic...)
	}
	sortRelPaths(files)
	return files, nil
}

// ToolchainFiles lists the generator files of the prefix of v, relative to
// the prefixes dir.
func (p *Packager) ToolchainFiles(v Variant) ([]RelPath, error) {
	files, err := walkFiles(p.Layout.PrefixesDir, v.String(), p.Classifier.IsToolchainFile)
	if err != nil {
		return nil, err
	}
	sortRelPaths(files)
	return files, nil
}

// BootstrapFiles lists bootstrap bundle files relative to the bundle dir,
// minus the generator files which come from the fresh build instead.
func (p *Packager) BootstrapFiles() ([]RelPath, error) {
	files, err := walkFiles(p.Layout.BootstrapDir, "", func(f RelPath) bool {
		return !p.Classifier.IsToolchainFile(f)
	})
	if err != nil {
		return nil, err
	}
	sortRelPaths(files)
	return files, nil
}

func (p *Packager) staticPrefixes() ([]Variant, error) {
	entries, err := os.ReadDir(p.Layout.PrefixesDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var prefixes []Variant
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), "-"+string(RuntimeStatic)) {
			continue
		}
		v, err := ParseVariant(entry.Name())
		if err != nil {
			logWarning(p.Tunnel, fmt.Sprintf("Ignoring prefix %s: %v", entry.Name(), err))
			continue
		}
		prefixes = append(prefixes, v)
	}
	return prefixes, nil
}

// walkFiles walks root/sub and returns the files accepted by include, with
// paths relative to root. A missing dir yields no files.
func walkFiles(root, sub string, include func(RelPath) bool) ([]RelPath, error) {
	start := filepath.Join(root, sub)
	if !io2.DirectoryExists(start) {
		return nil, nil
	}
	var files []RelPath
	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		f := ParseRelPath(rel)
		if include(f) {
			files = append(files, f)
		}
		return nil
	})
	return files, err
}

func sortRelPaths(files []RelPath) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].String() < files[j].String()
	})
}

type destFunc func(RelPath) (RelPath, error)

func toolchainDest(f RelPath) (RelPath, error) {
	return ToolchainDest(f), nil
}

func identityDest(f RelPath) (RelPath, error) {
	return f, nil
}

func copyFiles(fromDir string, files []RelPath, toDir string, dest destFunc) error {
	if err := io2.Mkdirp(toDir); err != nil {
		return err
	}
	for _, f := range files {
		d, err := dest(f)
		if err != nil {
			return err
		}
		if err := io2.CopyFile(filepath.Join(fromDir, f.FilePath()), filepath.Join(toDir, d.FilePath())); err != nil {
			return err
		}
	}
	return nil
}
