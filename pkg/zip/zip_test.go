package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssets(t *testing.T) {
	data, err := ArchiveAssets([]Asset{
		{Filename: "raw.jpg", MIME: "image/jpeg", Data: []byte{0xFF, 0xD8}},
		{Filename: "", Data: []byte("skipped")},
		{Filename: "captions.json", MIME: "application/json", Data: []byte(`{"top_text":"Me when"}`)},
	})
	if err != nil {
		t.Fatalf("ArchiveAssets returned error: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("entries = %d, want 2", len(zr.File))
	}
	if zr.File[0].Name != "raw.jpg" || zr.File[1].Name != "captions.json" {
		t.Fatalf("names = %s, %s", zr.File[0].Name, zr.File[1].Name)
	}
	rc, err := zr.File[1].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != `{"top_text":"Me when"}` {
		t.Fatalf("captions.json = %q", body)
	}
}

func TestArchiveAssetsRejectsDuplicates(t *testing.T) {
	_, err := ArchiveAssets([]Asset{{Filename: "a"}, {Filename: "a"}})
	if err == nil {
		t.Fatal("expected duplicate error")
	}
}
