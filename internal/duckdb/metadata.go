package duckdb

import (
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// ReferenceFile is the fingerprint of one named reference file.
type ReferenceFile struct {
	Name string
	FileFingerprint
}

// StatReferenceFile fingerprints the reference file name at path. The
// modification time is truncated to the microsecond precision of a DuckDB
// TIMESTAMP.
func StatReferenceFile(name, path string) (ReferenceFile, error) {
	fp, err := StatFile(path)
	if err != nil {
		return ReferenceFile{}, err
	}
	fp.ModTime = fp.ModTime.Truncate(time.Microsecond)
	return ReferenceFile{Name: name, FileFingerprint: fp}, nil
}

// Matches reports whether the file on disk still has the recorded size
// and modification time.
func (f ReferenceFile) Matches() bool {
	cur, err := StatFile(f.Path)
	if err != nil {
		return false
	}
	return cur.Size == f.Size && cur.ModTime.Truncate(time.Microsecond).Equal(f.ModTime)
}
