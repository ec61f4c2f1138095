//go:build !windows

package output

import (
	"os"
	"strconv"
	"syscall"
	"unsafe"
)

// getTerminalWidth returns the current terminal width, or defaultWidth
// when it cannot be determined (pipes, redirects).
func getTerminalWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if width, err := strconv.Atoi(cols); err == nil && width > 0 {
			return width
		}
	}

	type winsize struct {
		Row    uint16
		Col    uint16
		Xpixel uint16
		Ypixel uint16
	}

	ws := &winsize{}
	retCode, _, _ := syscall.Syscall(syscall.SYS_IOCTL,
		uintptr(syscall.Stdout),
		uintptr(syscall.TIOCGWINSZ),
		uintptr(unsafe.Pointer(ws)))

	if int(retCode) == -1 || ws.Col == 0 {
		return defaultWidth
	}
	return int(ws.Col)
}
