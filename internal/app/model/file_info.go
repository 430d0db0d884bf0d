package model

import "time"

// FileInfo describes one audio file found during a directory scan.
type FileInfo struct {
	FullPath string
	Name     string
	Size     int64
	ModTime  time.Time
}
