//go:build unix

package audio

import "golang.org/x/sys/unix"

func suspendProcess(pid int) error {
	return unix.Kill(pid, unix.SIGSTOP)
}

func resumeProcess(pid int) error {
	return unix.Kill(pid, unix.SIGCONT)
}
