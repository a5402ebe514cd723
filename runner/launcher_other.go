//go:build !windows

package runner

import "syscall"

// Unix children never get a console window of their own.
func sysProcAttr() *syscall.SysProcAttr {
	return nil
}
