package models

import (
	"fmt"
	"time"
)

// RequestLog is one entry of the request audit log
type RequestLog struct {
	ID        int64         `json:"id"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Status    int           `json:"status"`
	Latency   time.Duration `json:"latency"`
	CreatedAt time.Time     `json:"created_at"`
}

// String renders the entry the way the logs endpoint serves it:
// method, path, status and latency separated by double tabs.
func (l RequestLog) String() string {
	return fmt.Sprintf("%s\t\t%s\t\t%d\t\t%s", l.Method, l.Path, l.Status, FormatLatency(l.Latency))
}

// FormatLatency renders d in whole milliseconds, at least two digits wide
func FormatLatency(d time.Duration) string {
	return fmt.Sprintf("%02dms", d.Milliseconds())
}
