//go:build !windows

package output

import "os"

// enableANSI reports whether f can render escape sequences; unix terminals always can
func enableANSI(*os.File) bool {
	return true
}
