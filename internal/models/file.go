package models

import "time"

// FileRecord describes a fully received file share. The record is only
// written after the complete body is on disk.
type FileRecord struct {
	ID       int64     `json:"-"`
	Room     string    `json:"room"`
	Sender   string    `json:"sender"`
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	Ts       time.Time `json:"ts"`
}
