package deps

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgenware/j9/v3"
	"github.com/tattocau/frida/io2"
	"github.com/ulikunitz/xz"
)

const DefaultBootstrapURL = "https://build.frida.re/toolchain-20180731-windows-x86.exe"

// bundleRootName is the top level dir inside a bootstrap archive.
const bundleRootName = "toolchain-windows"

// Bootstrapper fetches and unpacks the prebuilt bootstrap toolchain once.
type Bootstrapper struct {
	Tunnel *j9.Tunnel
	Runner Runner
	URL    string
	// Dir is where the bundle lives once unpacked.
	Dir string
}

// Ensure downloads and unpacks the bundle unless Dir already exists.
func (b *Bootstrapper) Ensure() (string, error) {
	if io2.DirectoryExists(b.Dir) {
		return b.Dir, nil
	}

	logWarning(b.Tunnel, "Downloading bootstrap toolchain...")
	archive, err := os.CreateTemp("", "fdeps-bootstrap-*"+archiveSuffix(b.URL))
	if err != nil {
		return "", err
	}
	archivePath := archive.Name()
	archive.Close()
	defer os.Remove(archivePath)

	if err := b.Runner.Run(&RunOpt{
		Name: "curl",
		Args: []string{"-fL", "-o", archivePath, b.URL},
	}); err != nil {
		return "", err
	}

	logWarning(b.Tunnel, "Extracting bootstrap toolchain...")
	tmpDir, err := os.MkdirTemp("", "fdeps-bootstrap-toolchain")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	if strings.HasSuffix(b.URL, ".tar.xz") {
		err = extractTarXz(archivePath, tmpDir)
	} else {
		// 7-Zip self-extracting archive.
		err = b.Runner.Run(&RunOpt{
			Name: archivePath,
			Args: []string{"-o" + tmpDir, "-y"},
		})
	}
	if err != nil {
		return "", err
	}

	if err := io2.Mkdirp(filepath.Dir(b.Dir)); err != nil {
		return "", err
	}
	if err := os.Rename(filepath.Join(tmpDir, bundleRootName), b.Dir); err != nil {
		return "", fmt.Errorf("install bootstrap toolchain: %w", err)
	}
	return b.Dir, nil
}

func archiveSuffix(url string) string {
	if strings.HasSuffix(url, ".tar.xz") {
		return ".tar.xz"
	}
	return ".exe"
}

func extractTarXz(src, destDir string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	xzr, err := xz.NewReader(f)
	if err != nil {
		return fmt.Errorf("create xz reader: %w", err)
	}
	tr := tar.NewReader(xzr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}
		target := filepath.Join(destDir, filepath.FromSlash(hdr.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(filepath.Separator)) {
			return fmt.Errorf("tar entry escapes destination: %s", hdr.Name)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)|0o200)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}
