package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"time"
)

type Asset struct {
	Filename string
	Data     []byte
}

// ArchiveAssets writes every asset as a deflated, top-level entry. Directory
// components in Filename are dropped.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]struct{}, len(assets))
	now := time.Now()
	for _, asset := range assets {
		name := path.Base(asset.Filename)
		if name == "." || name == "/" || name == "" {
			_ = zw.Close()
			return nil, fmt.Errorf("zip: invalid filename %q", asset.Filename)
		}
		if _, dup := seen[name]; dup {
			_ = zw.Close()
			return nil, fmt.Errorf("zip: duplicate entry %q", name)
		}
		seen[name] = struct{}{}
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: now}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("zip: create %s: %w", name, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("zip: write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: finalize: %w", err)
	}
	return buf.Bytes(), nil
}
