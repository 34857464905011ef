package download

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

// Extract unpacks a downloaded artifact into dest. The format is chosen
// from the file name; anything without a recognized archive extension is
// treated as a bare binary and installed as <tool> with the exec bit set.
func Extract(archivePath, dest, tool string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("create extraction directory: %w", err)
	}

	name := strings.ToLower(filepath.Base(archivePath))
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return extractTarGz(archivePath, dest)
	case strings.HasSuffix(name, ".tar"):
		return extractTar(archivePath, dest)
	case strings.HasSuffix(name, ".zip"):
		return extractZip(archivePath, dest)
	default:
		return copyBinary(archivePath, filepath.Join(dest, tool))
	}
}

func extractTarGz(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	return untar(tar.NewReader(gz), dest)
}

func extractTar(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	return untar(tar.NewReader(f), dest)
}

func untar(tr *tar.Reader, dest string) error {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}

		if !filepath.IsLocal(filepath.FromSlash(hdr.Name)) {
			return fmt.Errorf("archive entry escapes extraction root: %s", hdr.Name)
		}
		target := filepath.Join(dest, filepath.FromSlash(hdr.Name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		default:
			log.Warn().Str("entry", hdr.Name).Msg("skipping unsupported archive entry")
		}
	}
}

func extractZip(archivePath, dest string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
			return fmt.Errorf("archive entry escapes extraction root: %s", f.Name)
		}
		target := filepath.Join(dest, filepath.FromSlash(f.Name))

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open archive entry %s: %w", f.Name, err)
		}
		err = writeEntry(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	perm := os.FileMode(0644)
	if mode&0111 != 0 {
		perm = 0755
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	_, err = io.Copy(out, r)
	out.Close()
	if err != nil {
		os.Remove(target)
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

func copyBinary(src, target string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open download: %w", err)
	}
	defer f.Close()

	return writeEntry(target, f, 0755)
}
