//go:build !windows

// Package process stops the headless browser started for PDF export.
package process

import "syscall"

// KillGroup sends SIGKILL to the process group led by pid, taking the
// browser's renderer and GPU children with it. Errors are ignored: the
// group may already be gone.
func KillGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
