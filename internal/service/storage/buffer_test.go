package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"camdetect/internal/config"
	"camdetect/internal/logger"
	"camdetect/internal/model"
)

func newTestBuffer(t *testing.T, limit int) (*BufferService, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "snapshots")

	log, err := logger.New(t.TempDir(), io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	cfg := &config.Config{
		SnapshotDirectory:     dir,
		SnapshotLimit:         limit,
		SnapshotFlushInterval: time.Hour,
	}
	return NewBufferService(cfg, log), dir
}

func TestBufferService_FlushWritesFiles(t *testing.T) {
	buf, dir := newTestBuffer(t, 10)
	at := time.Date(2026, 10, 19, 14, 30, 0, 250*int(time.Millisecond), time.UTC)

	buf.AddSnapshot(model.Snapshot{TakenAt: at, Class: "person", Data: []byte("jpeg-1")})
	buf.AddSnapshot(model.Snapshot{TakenAt: at, Class: "traffic light", Data: []byte("jpeg-2")})

	if n := buf.FlushSnapshots(); n != 2 {
		t.Fatalf("Expected 2 flushed snapshots, got %d", n)
	}
	if buf.Pending() != 0 {
		t.Errorf("Expected empty buffer after flush, got %d", buf.Pending())
	}

	data, err := os.ReadFile(filepath.Join(dir, "2026-10-19_14-30-00.250_traffic-light.jpg"))
	if err != nil {
		t.Fatalf("Expected snapshot file: %v", err)
	}
	if string(data) != "jpeg-2" {
		t.Errorf("Unexpected snapshot contents %q", data)
	}
}

func TestBufferService_Limit(t *testing.T) {
	buf, _ := newTestBuffer(t, 2)

	for i := 0; i < 5; i++ {
		buf.AddSnapshot(model.Snapshot{TakenAt: time.Now(), Class: "car", Data: []byte{byte(i)}})
	}
	if buf.Pending() != 2 {
		t.Errorf("Expected buffer capped at 2, got %d", buf.Pending())
	}
}

func TestBufferService_CopiesData(t *testing.T) {
	buf, dir := newTestBuffer(t, 1)
	data := []byte("original")
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	buf.AddSnapshot(model.Snapshot{TakenAt: at, Class: "cat", Data: data})
	copy(data, "modified")
	buf.FlushSnapshots()

	got, err := os.ReadFile(filepath.Join(dir, SnapshotFilename(model.Snapshot{TakenAt: at, Class: "cat"})))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "original" {
		t.Errorf("Snapshot aliases caller buffer: %q", got)
	}
}

func TestBufferService_RunFlushesOnStop(t *testing.T) {
	buf, dir := newTestBuffer(t, 5)
	buf.AddSnapshot(model.Snapshot{TakenAt: time.Now(), Class: "dog", Data: []byte("x")})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		buf.Run(stop)
		close(done)
	}()
	close(stop)
	<-done

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 snapshot on disk, got %d", len(entries))
	}
}

func TestBufferService_FlushEmpty(t *testing.T) {
	buf, dir := newTestBuffer(t, 5)

	if n := buf.FlushSnapshots(); n != 0 {
		t.Errorf("Expected nothing flushed, got %d", n)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Snapshot directory should not be created for an empty flush")
	}
}
