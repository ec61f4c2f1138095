//go:build windows

package output

import (
	"os"
	"strconv"
	"syscall"
	"unsafe"
)

// getTerminalWidth returns the current terminal width, or defaultWidth
// when it cannot be determined.
func getTerminalWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if width, err := strconv.Atoi(cols); err == nil && width > 0 {
			return width
		}
	}

	type coord struct {
		X, Y int16
	}
	type smallRect struct {
		Left, Top, Right, Bottom int16
	}
	type consoleScreenBufferInfo struct {
		Size              coord
		CursorPosition    coord
		Attributes        uint16
		Window            smallRect
		MaximumWindowSize coord
	}

	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	proc := kernel32.NewProc("GetConsoleScreenBufferInfo")

	var info consoleScreenBufferInfo
	handle := syscall.Handle(os.Stdout.Fd())
	ret, _, _ := proc.Call(uintptr(handle), uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return defaultWidth
	}

	width := int(info.Window.Right - info.Window.Left + 1)
	if width <= 0 {
		return defaultWidth
	}
	return width
}
