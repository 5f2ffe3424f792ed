package web

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aleister1102/releasewatch/internal/monitor"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"slug": models.ReleaseSlug,
		"join": strings.Join,
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format(monitor.DisplayTimeLayout)
		},
		"seconds": func(d time.Duration) string {
			return fmt.Sprintf("%.1fs", d.Seconds())
		},
		"bytes": humanBytes,
	}
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
