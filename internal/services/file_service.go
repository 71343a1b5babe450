package services

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/avelinof/chatrelay/internal/models"
)

// FileServiceProvider defines the interface for file storage and records.
type FileServiceProvider interface {
	SaveUpload(r io.Reader, filename string, size int64) (string, error)
	RecordShare(room, sender, filename, path string, ts time.Time) (models.FileRecord, error)
	PruneBefore(cutoff time.Time) ([]string, error)
}

// FileService stores received file bodies on disk and their records in the
// database.
type FileService struct {
	db  *sql.DB
	dir string
}

// NewFileService creates a new FileService rooted at dir.
func NewFileService(db *sql.DB, dir string) *FileService {
	return &FileService{db: db, dir: dir}
}

// SaveUpload streams exactly size bytes from r into a newly created file and
// returns its path. A short read aborts the transfer and removes the partial
// file; no record must ever point at a body that was not fully written.
func (s *FileService) SaveUpload(r io.Reader, filename string, size int64) (string, error) {
	name := fmt.Sprintf("%d_%s", time.Now().Unix(), filepath.Base(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.CopyN(f, r, size); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("transfer aborted after short read: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// RecordShare persists the record of a fully received file.
func (s *FileService) RecordShare(room, sender, filename, path string, ts time.Time) (models.FileRecord, error) {
	rec := models.FileRecord{
		Room:     room,
		Sender:   sender,
		Filename: filepath.Base(filename),
		Path:     path,
		Ts:       ts,
	}

	res, err := s.db.Exec("INSERT INTO files(room, sender, filename, path, ts) VALUES(?, ?, ?, ?, ?)",
		rec.Room, rec.Sender, rec.Filename, rec.Path, ts.Format(storedTimeFormat))
	if err != nil {
		return models.FileRecord{}, err
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return models.FileRecord{}, err
	}
	return rec, nil
}

// PruneBefore deletes file records older than the cutoff and returns the
// stored paths of the deleted rows so the caller can remove the bodies.
func (s *FileService) PruneBefore(cutoff time.Time) ([]string, error) {
	rows, err := s.db.Query("SELECT path FROM files WHERE ts < ?", cutoff.Format(storedTimeFormat))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := s.db.Exec("DELETE FROM files WHERE ts < ?", cutoff.Format(storedTimeFormat)); err != nil {
		return nil, err
	}
	return paths, nil
}
