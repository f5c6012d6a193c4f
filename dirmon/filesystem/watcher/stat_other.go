//go:build !linux

package watcher

import (
	"os"
)

// lstat reads the entry without following symbolic links.
// Ownership is not available on this platform.
func lstat(path string) (rawStat, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return rawStat{}, err
	}
	return fromFileInfo(info), nil
}

// stat reads the entry, following symbolic links
func stat(path string) (rawStat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return rawStat{}, err
	}
	return fromFileInfo(info), nil
}

func fromFileInfo(info os.FileInfo) rawStat {
	return rawStat{
		mode:    info.Mode(),
		size:    info.Size(),
		modTime: info.ModTime(),
	}
}
