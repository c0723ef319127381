// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsFatalFsnotifyError(t *testing.T) {
	t.Parallel()

	if len(fatalErrnos) == 0 {
		t.Fatal("no fatal errnos defined for this platform")
	}

	for _, errno := range fatalErrnos {
		t.Run(errno.Error(), func(t *testing.T) {
			t.Parallel()
			if !isFatalFsnotifyError(errno) {
				t.Errorf("isFatalFsnotifyError(%v) = false, want true", errno)
			}
			if !isFatalFsnotifyError(fmt.Errorf("fsnotify: %w", errno)) {
				t.Errorf("wrapped %v not classified as fatal", errno)
			}
		})
	}

	notFatal := []error{
		syscall.Errno(0xdead),
		errors.New("something went wrong"),
		fmt.Errorf("wrapped: %w", errors.New("plain")),
		nil,
	}
	for _, err := range notFatal {
		if isFatalFsnotifyError(err) {
			t.Errorf("isFatalFsnotifyError(%v) = true, want false", err)
		}
	}
}
