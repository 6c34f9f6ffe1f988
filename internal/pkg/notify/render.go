package notify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/CodeFuMaster/TrustLoops/app/models"
)

// Severity colors per notification type (hex, used in the email header bar).
const (
	colorIncidentCreated  = "#dc2626"
	colorIncidentUpdated  = "#f59e0b"
	colorIncidentResolved = "#16a34a"
)

func subjectFor(n *models.IncidentNotification) string {
	title := strings.TrimSpace(n.Incident.Title)
	if title == "" {
		title = fmt.Sprintf("Incident #%d", n.IncidentID)
	}

	switch n.Type {
	case models.NotificationTypeIncidentResolved:
		return "Resolved: " + title
	case models.NotificationTypeIncidentUpdated:
		return "Update: " + title
	default:
		return "New incident: " + title
	}
}

func severityColor(notificationType string) string {
	switch notificationType {
	case models.NotificationTypeIncidentResolved:
		return colorIncidentResolved
	case models.NotificationTypeIncidentUpdated:
		return colorIncidentUpdated
	default:
		return colorIncidentCreated
	}
}

func renderHTML(n *models.IncidentNotification) string {
	title := strings.TrimSpace(n.Incident.Title)
	message := strings.TrimSpace(n.Incident.Message)

	var b strings.Builder
	b.WriteString(`<div style="font-family:sans-serif;max-width:600px;margin:0 auto">`)
	b.WriteString(fmt.Sprintf(`<div style="background:%s;color:#ffffff;padding:16px;border-radius:6px 6px 0 0"><strong>%s</strong></div>`,
		severityColor(n.Type), escapeHTML(subjectFor(n))))
	b.WriteString(`<div style="border:1px solid #e5e7eb;border-top:0;padding:16px;border-radius:0 0 6px 6px">`)
	b.WriteString(fmt.Sprintf(`<h2 style="margin-top:0">%s</h2>`, escapeHTML(title)))
	if message != "" {
		b.WriteString(fmt.Sprintf(`<p>%s</p>`, escapeHTML(message)))
	}
	b.WriteString(fmt.Sprintf(`<p style="color:#6b7280">Status: %s</p>`, escapeHTML(n.Incident.Status)))
	b.WriteString(`</div></div>`)
	return b.String()
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// htmlToText derives the plain-text alternative of an HTML body: tags are
// stripped, common entities unescaped, whitespace collapsed.
func htmlToText(html string) string {
	text := tagPattern.ReplaceAllString(html, " ")
	text = entityReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
