package ingest

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/proppant-cli/internal/model"
)

// maxParallelFiles bounds concurrent CSV parsing in ReadFiles.
const maxParallelFiles = 4

// ReadFiles reads .csv files and .zip archives of .csv entries. Records
// are returned in argument order, then archive entry order.
func ReadFiles(ctx context.Context, paths ...string) ([]model.JobRecord, error) {
	tmp, err := os.MkdirTemp("", "proppant-ingest-*")
	if err != nil {
		return nil, eris.Wrap(err, "ingest: create temp dir")
	}
	defer os.RemoveAll(tmp) //nolint:errcheck

	var files []string
	for i, p := range paths {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".csv":
			files = append(files, p)
		case ".zip":
			extracted, err := extractCSVs(p, filepath.Join(tmp, "archive-"+strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			files = append(files, extracted...)
		default:
			return nil, eris.Errorf("ingest: unsupported input %q (want .csv or .zip)", p)
		}
	}

	parts := make([][]model.JobRecord, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFiles)
	for i, path := range files {
		g.Go(func() error {
			recs, err := readFile(gCtx, path)
			if err != nil {
				return err
			}
			parts[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.JobRecord
	for _, p := range parts {
		out = append(out, p...)
	}
	zap.L().Info("ingest: files read",
		zap.Int("inputs", len(paths)),
		zap.Int("csv_files", len(files)),
		zap.Int("rows", len(out)),
	)
	return out, nil
}

func readFile(ctx context.Context, path string) ([]model.JobRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	recs, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: %s", filepath.Base(path))
	}
	return recs, nil
}

// extractCSVs writes the archive's .csv entries under destDir and returns
// their paths in archive order.
func extractCSVs(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open archive %s", zipPath)
	}
	defer r.Close() //nolint:errcheck

	var out []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			continue
		}
		path, err := extractEntry(f, destDir)
		if err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	if len(out) == 0 {
		return nil, eris.Errorf("ingest: archive %s has no csv entries", filepath.Base(zipPath))
	}
	return out, nil
}

func extractEntry(f *zip.File, destDir string) (string, error) {
	// Guard against zip slip.
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("ingest: illegal path %q in archive", f.Name)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", eris.Wrap(err, "ingest: create directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrapf(err, "ingest: open entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrap(err, "ingest: create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return "", eris.Wrapf(err, "ingest: extract %s", f.Name)
	}
	return destPath, nil
}
