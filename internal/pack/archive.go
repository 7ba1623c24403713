package pack

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goplus/sdlpack/internal/config"
	"github.com/goplus/sdlpack/internal/nuget"
	"github.com/goplus/sdlpack/internal/shell"
)

// Job is one package to archive.
type Job struct {
	Manifest  *nuget.Manifest
	Nuspec    string // path of the written manifest inside StageDir
	StageDir  string
	OutputDir string
}

// FileName is the archive name the job produces.
func (j Job) FileName() string {
	return nuget.FileName(j.Manifest.Metadata.ID, j.Manifest.Metadata.Version)
}

// Archiver turns a staging directory into a package archive and returns its
// path.
type Archiver interface {
	Pack(ctx context.Context, job Job) (string, error)
}

// NewArchiver returns the archiver named by config.ArchiverNuGet or
// config.ArchiverZip.
func NewArchiver(name string, runner shell.Runner) Archiver {
	if name == config.ArchiverZip {
		return ZipArchiver{}
	}
	return &NuGetCLI{Runner: runner}
}

// NuGetCLI packs with the nuget command line tool.
type NuGetCLI struct {
	Runner shell.Runner
	Tool   string // defaults to "nuget"
}

func (n *NuGetCLI) Pack(ctx context.Context, job Job) (string, error) {
	tool := n.Tool
	if tool == "" {
		tool = "nuget"
	}
	cmd := shell.Command(tool, "pack", job.Nuspec,
		"-OutputDirectory", job.OutputDir,
		"-NoDefaultExcludes",
		"-NonInteractive")
	if err := n.Runner.Run(ctx, cmd); err != nil {
		return "", err
	}
	return filepath.Join(job.OutputDir, job.FileName()), nil
}

// zipEpoch is stamped on every entry so identical staging trees give
// identical archives.
var zipEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// ZipArchiver writes the .nupkg in-process. The result carries the
// manifest and an OPC [Content_Types].xml part, which is what NuGet clients
// require to restore the package.
type ZipArchiver struct{}

func (ZipArchiver) Pack(ctx context.Context, job Job) (string, error) {
	dest := filepath.Join(job.OutputDir, job.FileName())
	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	w := zip.NewWriter(f)

	var names []string
	err = filepath.WalkDir(job.StageDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(job.StageDir, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		names = append(names, name)
		return addZipFile(w, p, name)
	})
	if err == nil {
		err = writeContentTypes(w, names)
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}

func addZipFile(w *zip.Writer, src, name string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	header := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: zipEpoch}
	out, err := w.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	return err
}

type contentTypes struct {
	XMLName   xml.Name          `xml:"Types"`
	Xmlns     string            `xml:"xmlns,attr"`
	Defaults  []contentDefault  `xml:"Default"`
	Overrides []contentOverride `xml:"Override"`
}

type contentDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type contentOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

func writeContentTypes(w *zip.Writer, names []string) error {
	const octet = "application/octet"
	ct := contentTypes{Xmlns: "http://schemas.openxmlformats.org/package/2006/content-types"}
	exts := map[string]bool{}
	for _, n := range names {
		ext := strings.TrimPrefix(path.Ext(n), ".")
		if ext == "" {
			ct.Overrides = append(ct.Overrides, contentOverride{PartName: "/" + n, ContentType: octet})
			continue
		}
		exts[ext] = true
	}
	keys := make([]string, 0, len(exts))
	for k := range exts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ct.Defaults = append(ct.Defaults, contentDefault{Extension: k, ContentType: octet})
	}

	out, err := w.CreateHeader(&zip.FileHeader{Name: "[Content_Types].xml", Method: zip.Deflate, Modified: zipEpoch})
	if err != nil {
		return err
	}
	if _, err := io.WriteString(out, xml.Header); err != nil {
		return err
	}
	return xml.NewEncoder(out).Encode(ct)
}
