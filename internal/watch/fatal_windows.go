// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import "syscall"

// Win32 codes reported by ReadDirectoryChangesW once the watch can no longer
// deliver events.
var fatalErrnos = []syscall.Errno{
	4, // ERROR_TOO_MANY_OPEN_FILES
	6, // ERROR_INVALID_HANDLE, usually the watched directory was removed
	8, // ERROR_NOT_ENOUGH_MEMORY
}
