//go:build linux

package watcher

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// lstat reads the entry without following symbolic links
func lstat(path string) (rawStat, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return rawStat{}, &os.PathError{Op: "lstat", Path: path, Err: err}
	}
	return fromStat(&st), nil
}

// stat reads the entry, following symbolic links
func stat(path string) (rawStat, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return rawStat{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return fromStat(&st), nil
}

func fromStat(st *unix.Stat_t) rawStat {
	return rawStat{
		mode:     fileMode(uint32(st.Mode)),
		size:     st.Size,
		modTime:  time.Unix(int64(st.Mtim.Sec), int64(st.Mtim.Nsec)),
		uid:      st.Uid,
		gid:      st.Gid,
		hasOwner: true,
	}
}

// fileMode converts raw st_mode bits to an os.FileMode
func fileMode(m uint32) os.FileMode {
	mode := os.FileMode(m & 0o777)
	switch m & unix.S_IFMT {
	case unix.S_IFDIR:
		mode |= os.ModeDir
	case unix.S_IFLNK:
		mode |= os.ModeSymlink
	case unix.S_IFIFO:
		mode |= os.ModeNamedPipe
	case unix.S_IFSOCK:
		mode |= os.ModeSocket
	case unix.S_IFBLK:
		mode |= os.ModeDevice
	case unix.S_IFCHR:
		mode |= os.ModeDevice | os.ModeCharDevice
	}
	if m&unix.S_ISUID != 0 {
		mode |= os.ModeSetuid
	}
	if m&unix.S_ISGID != 0 {
		mode |= os.ModeSetgid
	}
	if m&unix.S_ISVTX != 0 {
		mode |= os.ModeSticky
	}
	return mode
}
