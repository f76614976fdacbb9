package util

const maxLogBytes = 512

// TruncateForLog bounds response bodies included in error messages.
func TruncateForLog(b []byte) string {
	if len(b) <= maxLogBytes {
		return string(b)
	}
	return string(b[:maxLogBytes]) + "...(truncated)"
}
