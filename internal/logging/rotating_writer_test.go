package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestRotatingWriterKeepsOneBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tournament.log")
	w, err := newRotatingWriter(path, 1)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	defer w.Close()

	chunk := func(b byte) []byte { return bytes.Repeat([]byte{b}, 512*1024) }
	for _, b := range []byte{'a', 'b', 'c'} {
		if _, err := w.Write(chunk(b)); err != nil {
			t.Fatalf("write %c: %v", b, err)
		}
	}

	cur, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(cur) != 512*1024 || cur[0] != 'c' {
		t.Fatalf("current log = %d bytes, want only the last chunk", len(cur))
	}
	backup, err := os.ReadFile(path + ".1")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if len(backup) != 1024*1024 || backup[0] != 'a' || backup[len(backup)-1] != 'b' {
		t.Fatalf("backup = %d bytes, want the first two chunks", len(backup))
	}
}

func TestRotatingWriterAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tournament.log")
	if err := os.WriteFile(path, []byte("old\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	w, err := newRotatingWriter(path, 0)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	if w.maxBytes != defaultMaxMB<<20 {
		t.Fatalf("maxBytes = %d", w.maxBytes)
	}
	if _, err := w.Write([]byte("new\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "old\nnew\n" {
		t.Fatalf("log = %q", got)
	}
	if _, err := w.Write([]byte("again\n")); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	_ = w.Close()
}
