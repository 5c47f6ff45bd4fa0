package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/hazardwatch/go-hazard-alerts/internal/models"
)

func emailSubject(a *models.Alert) string {
	return fmt.Sprintf("[%s] %s Alert: %s", a.Severity, a.Category, a.Title)
}

func emailText(a *models.Alert, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s ALERT\n\n", a.Severity, a.Category)
	fmt.Fprintf(&b, "%s\n\n%s\n\n", a.Title, a.Message)
	b.WriteString("Alert Details:\n")
	fmt.Fprintf(&b, "- Type: %s\n", a.Category)
	fmt.Fprintf(&b, "- Severity: %s\n", a.Severity)
	fmt.Fprintf(&b, "- Location: %.4f, %.4f\n", a.Latitude, a.Longitude)
	fmt.Fprintf(&b, "- Time: %s UTC\n", now.UTC().Format("2006-01-02 15:04:05"))
	if a.ExpiresAt != nil {
		fmt.Fprintf(&b, "- Expires: %s UTC\n", a.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	}
	b.WriteString("\nThis is an automated alert from the hazard alert engine.\n")
	b.WriteString("Please take appropriate safety measures.\n")
	return b.String()
}

func emailHTML(a *models.Alert, now time.Time) string {
	color := map[models.Severity]string{
		models.SeverityLow:      "#28a745",
		models.SeverityMedium:   "#ffc107",
		models.SeverityHigh:     "#fd7e14",
		models.SeverityCritical: "#dc3545",
	}[a.Severity]
	if color == "" {
		color = "#6c757d"
	}

	expires := ""
	if a.ExpiresAt != nil {
		expires = fmt.Sprintf("<p><strong>Expires:</strong> %s UTC</p>", a.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	}

	return fmt.Sprintf(`<html><body>
<div style="border-top:8px solid %s;padding:16px;font-family:sans-serif">
<h1>%s %s ALERT</h1>
<h2>%s</h2>
<p>%s</p>
<p><strong>Location:</strong> %.4f, %.4f</p>
<p><strong>Time:</strong> %s UTC</p>
%s
<p>This is an automated alert from the hazard alert engine. Please take appropriate safety measures.</p>
</div>
</body></html>`,
		color, a.Severity, a.Category, a.Title, a.Message,
		a.Latitude, a.Longitude, now.UTC().Format("2006-01-02 15:04:05"), expires)
}

func smsText(a *models.Alert, now time.Time) string {
	return fmt.Sprintf("%s %s ALERT\n%s\nLocation: %.3f, %.3f\nTime: %s\nTake appropriate safety measures.",
		a.Severity, a.Category, a.Title,
		a.Latitude, a.Longitude, now.UTC().Format("01/02 15:04"))
}
