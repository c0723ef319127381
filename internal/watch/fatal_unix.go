// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import "syscall"

// inotify resource exhaustion: the watch limit (ENOSPC) or the per-process
// and system-wide descriptor limits.
var fatalErrnos = []syscall.Errno{
	syscall.ENOSPC,
	syscall.EMFILE,
	syscall.ENFILE,
}
