package deps

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

// Compressor packs a staging dir into one distributable file. The archive
// contains the staging dir itself as its only top level entry.
type Compressor interface {
	Compress(stagingDir, outputPath string, level int) error
	// Ext is the extension of the files Compress produces.
	Ext() string
}

// SevenZip produces self-extracting 7-Zip console archives.
type SevenZip struct {
	Runner Runner
	Name   string
}

func NewSevenZip(runner Runner) *SevenZip {
	return &SevenZip{Runner: runner, Name: "7z"}
}

func (z *SevenZip) Ext() string {
	return ".exe"
}

func (z *SevenZip) Compress(stagingDir, outputPath string, level int) error {
	return z.Runner.Run(&RunOpt{
		Name: z.Name,
		Args: []string{
			"a",
			fmt.Sprintf("-mx%d", level),
			"-sfx7zCon.sfx",
			"-r",
			outputPath,
			filepath.Base(stagingDir),
		},
		Dir: filepath.Dir(stagingDir),
	})
}

// TarXz writes .tar.xz archives in-process.
type TarXz struct{}

func (TarXz) Ext() string {
	return ".tar.xz"
}

// xzPresetDictCaps are the dictionary sizes of xz presets 0-9.
var xzPresetDictCaps = []int{
	256 << 10,
	1 << 20,
	2 << 20,
	4 << 20,
	4 << 20,
	8 << 20,
	8 << 20,
	16 << 20,
	32 << 20,
	64 << 20,
}

func xzDictCap(level int) int {
	level = max(0, min(level, len(xzPresetDictCaps)-1))
	return xzPresetDictCaps[level]
}

// Compress writes to a temporary file next to outputPath and renames it into
// place on success, so a failed run never leaves a truncated archive behind.
func (t TarXz) Compress(stagingDir, outputPath string, level int) error {
	tmpPath := outputPath + ".tmp"
	if err := t.write(stagingDir, tmpPath, level); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, outputPath)
}

func (TarXz) write(stagingDir, outputPath string, level int) (err error) {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	xzw, err := xz.WriterConfig{DictCap: xzDictCap(level)}.NewWriter(f)
	if err != nil {
		return fmt.Errorf("create xz writer: %w", err)
	}
	tw := tar.NewWriter(xzw)

	root := filepath.Dir(stagingDir)
	err = filepath.WalkDir(stagingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return xzw.Close()
}
