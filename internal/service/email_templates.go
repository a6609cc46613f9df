package service

import (
	"fmt"
	"html"
	"strings"
)

// matchFoundEmailTemplate renders the email sent to a finder after the
// loser confirms a match: every field of the lost report plus the loser's
// contact email. Values are user input and get escaped.
func matchFoundEmailTemplate(n MatchNotification, appName string) (string, string) {
	subject := fmt.Sprintf("%s: someone claimed the item you found", appName)

	var b strings.Builder
	b.WriteString("<h1>" + html.EscapeString(appName) + "</h1>\n")
	b.WriteString("<p>Someone claims to own the item you reported as found")
	if n.LicenseName != "" {
		b.WriteString(" (" + html.EscapeString(n.LicenseName) + ")")
	}
	b.WriteString(".</p>\n")
	b.WriteString("<p>Review the details they filled in. If they don't add up, ignore this email; otherwise you can reach the owner at the contact address below.</p>\n")

	for _, p := range n.Properties {
		b.WriteString("<div><span>" + html.EscapeString(p.Name) + "</span><span>: </span>")
		if p.ValueType == "image" {
			b.WriteString(`<img src="` + html.EscapeString(p.Value) + `" alt="` + html.EscapeString(p.Name) + `" />`)
		} else {
			b.WriteString("<span>" + html.EscapeString(p.Value) + "</span>")
		}
		b.WriteString("</div>\n")
	}

	b.WriteString("<h3>Contact</h3>\n")
	b.WriteString("<div><span>Email: </span><span>" + html.EscapeString(n.LoserEmail) + "</span></div>\n")

	return subject, b.String()
}
