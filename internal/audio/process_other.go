//go:build !unix

package audio

func suspendProcess(int) error { return errSuspendUnsupported }

func resumeProcess(int) error { return errSuspendUnsupported }
