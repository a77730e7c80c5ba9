package frame

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/astrogo/fitsio"
	log "github.com/sirupsen/logrus"
)

// Archive writes frames below a data directory.
type Archive struct {
	dir    string
	logger log.FieldLogger
}

func NewArchive(dir string, logger log.FieldLogger) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Archive{dir: dir, logger: logger}, nil
}

func (a *Archive) Dir() string {
	return a.dir
}

// Path resolves name inside the archive. Names cannot escape the directory.
func (a *Archive) Path(name string) string {
	return filepath.Join(a.dir, filepath.Clean("/"+name))
}

// Write stores img with header h under name and returns the file path.
func (a *Archive) Write(name string, h Header, img *Image) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	path := a.Path(name)
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".fits" && ext != ".fit" {
		a.logger.Warnf("Frame %s does not have a FITS extension", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := writeFITS(f, h, img); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	a.logger.WithField("file", path).Infof("Wrote %dx%d frame", img.NX, img.NY)
	return path, nil
}

func writeFITS(f *os.File, h Header, img *Image) error {
	out, err := fitsio.Create(f)
	if err != nil {
		return err
	}

	hdu := fitsio.NewImage(-32, []int{img.NX, img.NY})
	if err := hdu.Header().Append(h...); err != nil {
		return err
	}
	if err := hdu.Write(img.Pixels); err != nil {
		return err
	}
	if err := out.Write(hdu); err != nil {
		return err
	}
	if err := hdu.Close(); err != nil {
		return err
	}
	return out.Close()
}
