package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"camdetect/internal/model"
	"camdetect/internal/repository/sqlite"
	"camdetect/internal/service/export"

	"github.com/google/uuid"
)

const exportTimeLayout = "20060102_150405"

var errAlreadyImported = errors.New("already imported")

func main() {
	exportsDir := flag.String("exports", "exports", "Directory containing exported detection logs")
	dbPath := flag.String("db", "data/sessions.db", "Database path")
	flag.Parse()

	fmt.Printf("Importing detection logs from %s into %s\n", *exportsDir, *dbPath)

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	files, err := os.ReadDir(*exportsDir)
	if err != nil {
		log.Fatalf("Failed to read exports directory: %v", err)
	}

	sessions := sqlite.NewSessionRepository(db)
	imported, skipped := 0, 0
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}

		path := filepath.Join(*exportsDir, file.Name())
		session, err := importLog(sessions, path)
		if err != nil {
			log.Printf("Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}
		imported++
		fmt.Printf("   %s: %d classes\n", file.Name(), session.Detections)
	}

	fmt.Printf("Imported %d detection logs\n", imported)
	if skipped > 0 {
		fmt.Printf("Skipped %d files\n", skipped)
	}
}

type sessionSaver interface {
	SaveSession(session *model.Session, record model.SessionRecord) error
	GetByID(id string) (*model.Session, error)
}

// importLog stores one exported log as a finished session. The session id is
// derived from the absolute path, so importing the same file twice is refused.
func importLog(sessions sessionSaver, path string) (*model.Session, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs))).String()
	if _, err := sessions.GetByID(id); err == nil {
		return nil, errAlreadyImported
	}

	record, err := export.ReadSessionRecord(path, time.Local)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	started := sessionStart(filepath.Base(path), record, info.ModTime())
	ended := started
	if n := len(record); n > 0 && record[n-1].ObservedAt.After(ended) {
		ended = record[n-1].ObservedAt
	}

	session := &model.Session{
		ID:          id,
		StartedAt:   started,
		EndedAt:     ended,
		RecordsPath: abs,
	}
	if err := sessions.SaveSession(session, record); err != nil {
		return nil, err
	}
	return session, nil
}

// sessionStart takes the time from a detections_YYYYMMDD_HHMMSS.json name,
// then the first detection, then the file's modification time.
func sessionStart(name string, record model.SessionRecord, modTime time.Time) time.Time {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, "detections_"), ".json")
	if t, err := time.ParseInLocation(exportTimeLayout, stamp, time.Local); err == nil {
		return t
	}
	if len(record) > 0 {
		return record[0].ObservedAt
	}
	return modTime
}
