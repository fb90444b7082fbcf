package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"camdetect/internal/config"
	"camdetect/internal/logger"
	"camdetect/internal/model"
)

const snapshotTimeLayout = "2006-01-02_15-04-05.000"

// BufferService keeps first-sighting snapshots in memory and periodically
// flushes them to disk.
type BufferService struct {
	snapshotDir   string
	limit         int
	flushInterval time.Duration
	snapshots     []model.Snapshot
	dropped       int
	mu            sync.Mutex
	logger        *logger.Logger
}

// NewBufferService creates a BufferService for the configured snapshot directory.
func NewBufferService(cfg *config.Config, logger *logger.Logger) *BufferService {
	return &BufferService{
		snapshotDir:   cfg.SnapshotDirectory,
		limit:         cfg.SnapshotLimit,
		flushInterval: cfg.SnapshotFlushInterval,
		snapshots:     make([]model.Snapshot, 0),
		logger:        logger,
	}
}

// Run flushes the buffer every flush interval until stop is closed, then flushes once more.
func (s *BufferService) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.FlushSnapshots()
		case <-stop:
			s.FlushSnapshots()
			return
		}
	}
}

// AddSnapshot buffers a snapshot. Snapshots beyond the limit are dropped until the next flush.
func (s *BufferService) AddSnapshot(snapshot model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) >= s.limit {
		s.dropped++
		return
	}

	data := make([]byte, len(snapshot.Data))
	copy(data, snapshot.Data)
	snapshot.Data = data
	s.snapshots = append(s.snapshots, snapshot)
}

// Pending returns the number of buffered snapshots.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// FlushSnapshots writes buffered snapshots to disk and empties the buffer.
// It returns the number of files written.
func (s *BufferService) FlushSnapshots() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.snapshotDir, 0755); err != nil {
		s.logger.Error("Error creating snapshot directory: %v", err)
		return 0
	}

	saved := 0
	for _, snap := range s.snapshots {
		filename := SnapshotFilename(snap)
		if err := os.WriteFile(filepath.Join(s.snapshotDir, filename), snap.Data, 0644); err != nil {
			s.logger.Error("Error saving snapshot %s: %v", filename, err)
			continue
		}
		saved++
	}

	if s.dropped > 0 {
		s.logger.Warning("Snapshot buffer full, dropped %d snapshot(s)", s.dropped)
	}
	s.logger.Info("Flushed %d snapshot(s) to disk", saved)
	s.snapshots = s.snapshots[:0]
	s.dropped = 0
	return saved
}

// SnapshotFilename builds "<timestamp>_<class>.jpg" with path-unsafe characters replaced.
func SnapshotFilename(snap model.Snapshot) string {
	class := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, snap.Class)
	return fmt.Sprintf("%s_%s.jpg", snap.TakenAt.Format(snapshotTimeLayout), class)
}
