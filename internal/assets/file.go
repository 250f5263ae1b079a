package assets

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// SupportedExt lists the extensions picked up from image directories
var SupportedExt = mapset.NewSet(
	".jpeg", ".jpg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff",
)

// FileFetcher reads local files. Relative paths resolve against Root.
type FileFetcher struct {
	Root string
}

func (f *FileFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(f.path(source))
}

func (f *FileFetcher) path(source string) string {
	p := source
	if strings.HasPrefix(source, "file://") {
		if u, err := url.Parse(source); err == nil {
			p = u.Path
		}
	}
	if !filepath.IsAbs(p) && f.Root != "" {
		p = filepath.Join(f.Root, p)
	}
	return p
}

// ImagesInDir lists the supported images of a directory in name order
func ImagesInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if SupportedExt.Contains(ext) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
