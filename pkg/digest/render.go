package digest

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/contentpulse/notifykit/pkg/notifier"
	"github.com/contentpulse/notifykit/pkg/settings"
)

// maxItemsPerGroup caps how many entries a digest lists for one
// notification type before collapsing the rest into an "and N more" line.
const maxItemsPerGroup = 5

// Payload is a rendered digest ready for channel dispatch.
type Payload struct {
	Title       string
	Text        string
	HTML        string
	PushSummary string
	Total       int
}

// group is one notification type's slice of the digest, in the order the
// records were fetched (newest first).
type group struct {
	name  string
	items []string
}

// Render builds the digest payload from a user's recent records. Groups
// appear in order of their newest record; items keep newest-first order.
func Render(cadence settings.Cadence, now time.Time, records []*notifier.Record) Payload {
	label := "Daily"
	window := "day"
	if cadence == settings.CadenceWeekly {
		label = "Weekly"
		window = "week"
	}
	title := fmt.Sprintf("%s Activity Summary - %s", label, now.Format("January 2, 2006"))

	var groups []*group
	index := make(map[string]*group)
	for _, r := range records {
		g, ok := index[r.Type]
		if !ok {
			g = &group{name: r.Type}
			index[r.Type] = g
			groups = append(groups, g)
		}
		item := r.Message
		if item == "" {
			item = r.Title
		}
		g.items = append(g.items, item)
	}

	var text strings.Builder
	var htmlBody strings.Builder

	fmt.Fprintf(&text, "You have %d notifications from the past %s.\n", len(records), window)
	fmt.Fprintf(&htmlBody, "<h2>%s</h2>\n<p>You have %d notifications from the past %s.</p>\n",
		html.EscapeString(title), len(records), window)

	for _, g := range groups {
		fmt.Fprintf(&text, "\n%s (%d):\n", g.name, len(g.items))
		fmt.Fprintf(&htmlBody, "<h3>%s (%d)</h3>\n<ul>\n", html.EscapeString(g.name), len(g.items))

		shown := min(len(g.items), maxItemsPerGroup)
		for _, item := range g.items[:shown] {
			fmt.Fprintf(&text, "- %s\n", item)
			fmt.Fprintf(&htmlBody, "<li>%s</li>\n", html.EscapeString(item))
		}
		htmlBody.WriteString("</ul>\n")

		if rest := len(g.items) - shown; rest > 0 {
			fmt.Fprintf(&text, "and %d more\n", rest)
			fmt.Fprintf(&htmlBody, "<p>and %d more</p>\n", rest)
		}
	}

	return Payload{
		Title:       title,
		Text:        text.String(),
		HTML:        htmlBody.String(),
		PushSummary: fmt.Sprintf("You have %d notifications in your %s digest", len(records), strings.ToLower(label)),
		Total:       len(records),
	}
}
