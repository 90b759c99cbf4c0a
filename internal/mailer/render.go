package mailer

import (
	"fmt"
	"html"
	"slices"
	"strings"
	"time"

	"github.com/lysyi3m/rss-digest/internal/feed"
)

const displayTimeLayout = "2006-01-02 15:04 UTC"

// Message is a rendered digest.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Render builds the digest for a run. Entries are grouped by source domain
// (domains sorted) and keep their given order inside a group.
func Render(entries []feed.Entry, failures []string, now time.Time, subjectPrefix string) Message {
	domains, groups := groupByDomain(entries)
	total := len(entries)
	subject := fmt.Sprintf("%s (%d new)", subjectPrefix, total)

	text := []string{fmt.Sprintf("%s - %d new", subjectPrefix, total), ""}
	page := []string{
		"<!doctype html>",
		"<html>",
		"<head>",
		`<meta charset="utf-8"/>`,
		`<meta name="viewport" content="width=device-width, initial-scale=1"/>`,
		"<title>" + html.EscapeString(subject) + "</title>",
		"</head>",
		`<body style="font-family: -apple-system, Segoe UI, Roboto, Helvetica, Arial, sans-serif; line-height: 1.4;">`,
		fmt.Sprintf(`<h1 style="margin:0 0 8px 0;">%s</h1>`, html.EscapeString(subjectPrefix)),
		fmt.Sprintf(`<div style="color:#555; margin:0 0 16px 0;">%s • %d new</div>`, html.EscapeString(formatTime(&now)), total),
	}

	for _, domain := range domains {
		text = append(text, domain)
		page = append(page,
			fmt.Sprintf(`<h2 style="margin:20px 0 8px 0;">%s</h2>`, html.EscapeString(domain)),
			`<ol style="margin:0; padding-left: 22px;">`)

		for _, entry := range groups[domain] {
			title := displayTitle(entry)
			published := formatTime(entry.PublishedAt)

			text = append(text, "- "+title)
			if entry.Link != "" {
				text = append(text, "  "+entry.Link)
			}
			if published != "" {
				text = append(text, "  "+published)
			}

			page = append(page, fmt.Sprintf(`<li style="margin: 8px 0;">%s%s</li>`,
				htmlLink(title, entry.Link), htmlMeta(entry.SourceTitle, published)))
		}

		page = append(page, "</ol>")
		text = append(text, "")
	}

	if len(failures) > 0 {
		text = append(text, "Failures:")
		page = append(page,
			`<h2 style="margin:20px 0 8px 0;">Failures</h2>`,
			`<ul style="margin:0; padding-left: 18px; color:#a00;">`)
		for _, failure := range failures {
			text = append(text, "- "+failure)
			page = append(page, "<li>"+html.EscapeString(failure)+"</li>")
		}
		page = append(page, "</ul>")
	}

	page = append(page, "</body></html>")

	return Message{
		Subject: subject,
		Text:    strings.TrimRight(strings.Join(text, "\n"), " \t\r\n") + "\n",
		HTML:    strings.Join(page, "\n") + "\n",
	}
}

func groupByDomain(entries []feed.Entry) ([]string, map[string][]feed.Entry) {
	groups := make(map[string][]feed.Entry)
	var domains []string
	for _, entry := range entries {
		if _, ok := groups[entry.SourceDomain]; !ok {
			domains = append(domains, entry.SourceDomain)
		}
		groups[entry.SourceDomain] = append(groups[entry.SourceDomain], entry)
	}
	slices.Sort(domains)
	return domains, groups
}

func displayTitle(entry feed.Entry) string {
	switch {
	case entry.Title != "":
		return entry.Title
	case entry.Link != "":
		return entry.Link
	default:
		return entry.ID
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(displayTimeLayout)
}

func htmlLink(title, link string) string {
	if link == "" {
		return html.EscapeString(title)
	}
	return fmt.Sprintf(`<a href="%s" style="color:#0b57d0; text-decoration:none;">%s</a>`,
		html.EscapeString(link), html.EscapeString(title))
}

func htmlMeta(sourceTitle, published string) string {
	var parts []string
	for _, part := range []string{sourceTitle, published} {
		if part != "" {
			parts = append(parts, html.EscapeString(part))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf(`<div style="color:#666; font-size: 12px; margin-top: 2px;">%s</div>`, strings.Join(parts, " • "))
}
