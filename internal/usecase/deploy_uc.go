package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"telegram-card-counter/internal/domain"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

var _ DeployUseCase = (*deployUC)(nil)

// Package is an in-memory zip of the deployment files.
type Package struct {
	Name  string
	Data  []byte
	Files int
}

type DeployUseCase interface {
	Build(ctx context.Context) (*Package, error)
}

type deployUC struct {
	root  string
	paths []string
	now   func() time.Time
	log   *zerolog.Logger
}

// NewDeployUseCase packs paths (files or directories, relative to root).
// Missing paths are skipped.
func NewDeployUseCase(root string, paths []string, logger *zerolog.Logger) *deployUC {
	return &deployUC{root: root, paths: paths, now: time.Now, log: logger}
}

func (d *deployUC) Build(ctx context.Context) (*Package, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := 0

	for _, p := range d.paths {
		base := filepath.Join(d.root, p)
		err := filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if entry.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(d.root, path)
			if err != nil {
				return err
			}
			if err := addFile(zw, path, filepath.ToSlash(rel)); err != nil {
				return err
			}
			files++
			return nil
		})
		if errors.Is(err, fs.ErrNotExist) {
			d.log.Debug().Str("path", p).Msg("deploy path missing, skipped")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", p, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	if files == 0 {
		return nil, domain.ErrEmptyPackage
	}

	id := ulid.MustNew(ulid.Timestamp(d.now()), ulid.DefaultEntropy())
	pkg := &Package{
		Name:  fmt.Sprintf("deploy_%s.zip", id.String()),
		Data:  buf.Bytes(),
		Files: files,
	}
	d.log.Info().Str("name", pkg.Name).Int("files", files).Int("bytes", len(pkg.Data)).Msg("deployment package built")
	return pkg, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
