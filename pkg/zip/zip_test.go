package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssetsRoundTrip(t *testing.T) {
	assets := []Asset{
		{Filename: "a.png", Data: []byte("first")},
		{Filename: "nested/b.png", Data: bytes.Repeat([]byte{0x89, 0x50}, 512)},
	}
	raw, err := ArchiveAssets(assets)
	if err != nil {
		t.Fatalf("ArchiveAssets returned error: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("entries = %d, want 2", len(zr.File))
	}
	wantNames := []string{"a.png", "b.png"}
	for i, f := range zr.File {
		if f.Name != wantNames[i] {
			t.Fatalf("entry[%d] = %q, want %q", i, f.Name, wantNames[i])
		}
		if f.Comment != "" {
			t.Fatalf("entry[%d] comment = %q, want none", i, f.Comment)
		}
		if f.Method != zip.Deflate {
			t.Fatalf("entry[%d] method = %d, want deflate", i, f.Method)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry: %v", err)
		}
		got, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("read entry: %v", err)
		}
		if !bytes.Equal(got, assets[i].Data) {
			t.Fatalf("entry[%d] content mismatch", i)
		}
	}
}

func TestArchiveAssetsEmpty(t *testing.T) {
	raw, err := ArchiveAssets(nil)
	if err != nil {
		t.Fatalf("ArchiveAssets returned error: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 0 {
		t.Fatalf("entries = %d, want 0", len(zr.File))
	}
}

func TestArchiveAssetsRejectsDuplicates(t *testing.T) {
	_, err := ArchiveAssets([]Asset{
		{Filename: "x.png", Data: []byte("1")},
		{Filename: "dir/x.png", Data: []byte("2")},
	})
	if err == nil {
		t.Fatal("expected duplicate entry error")
	}
}
