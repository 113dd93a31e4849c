package ai

import (
	"strings"

	"github.com/russross/blackfriday/v2"
)

var bulletPrefixes = []string{"- ", "* ", "+ ", "• ", "· ", "– "}

// CleanText strips markdown emphasis and bullet prefixes a model sometimes
// emits despite the prompt. Line structure is kept; empty lines are dropped.
// Inline code loses its backtick delimiters.
func CleanText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = stripBullet(line)
	}
	s = strings.Join(lines, "\n")

	if strings.ContainsAny(s, "*_`#[~") {
		s = stripMarkdown(s)
	}

	out := make([]string, 0, len(lines))
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func stripBullet(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return strings.TrimSpace(trimmed[len(p):])
		}
	}
	return line
}

// stripMarkdown renders s as plain text: only literal content survives and
// block ends become newlines. Code spans keep their text without backticks.
func stripMarkdown(s string) string {
	md := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions | blackfriday.HardLineBreak))
	root := md.Parse([]byte(s))

	var sb strings.Builder
	root.Walk(func(n *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		switch n.Type {
		case blackfriday.Text, blackfriday.Code:
			if entering {
				sb.Write(n.Literal)
			}
		case blackfriday.CodeBlock:
			if entering {
				sb.Write(n.Literal)
				sb.WriteByte('\n')
			}
		case blackfriday.Softbreak, blackfriday.Hardbreak:
			if entering {
				sb.WriteByte('\n')
			}
		case blackfriday.TableCell:
			if !entering {
				sb.WriteByte(' ')
			}
		case blackfriday.Paragraph, blackfriday.Heading, blackfriday.Item, blackfriday.TableRow:
			if !entering {
				sb.WriteByte('\n')
			}
		}
		return blackfriday.GoToNext
	})
	return sb.String()
}
