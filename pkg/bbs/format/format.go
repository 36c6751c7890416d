// Package format renders fetched BBS rows as fixed-width text boxes.
//
// Every function here is pure. Output uses "\n" line breaks; the terminal
// converts them to CRLF on the way out.
package format

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	"github.com/olekukonko/tablewriter"

	"github.com/marmos91/openbbs/pkg/bbs/models"
	"github.com/marmos91/openbbs/pkg/bbs/settings"
)

const (
	// Width is the outer width of every box.
	Width = 80

	// BodyWidth is the text width available inside a box.
	BodyWidth = Width - 4

	// ListingTime is the timestamp layout of thread listings.
	ListingTime = "01/02/06 15:04:05"

	// LongTime is the timestamp layout of thread views and inboxes.
	LongTime = time.ANSIC
)

var rule = "+" + strings.Repeat("=", Width-2) + "+"

// Banner returns a boxed, centered title.
func Banner(title string) string {
	title = truncate(title, Width-2)
	pad := Width - 2 - utf8.RuneCountInString(title)
	left := pad / 2
	return rule + "\n|" + strings.Repeat(" ", left) + title + strings.Repeat(" ", pad-left) + "|\n" + rule
}

// Boards renders the board listing shown on the overboard.
func Boards(boards []settings.Board) string {
	rows := make([][]string, 0, len(boards))
	for _, b := range boards {
		rows = append(rows, []string{b.Name, b.Description})
	}
	return Banner("BOARD LISTING") + table(rows, []int{18, 55},
		[]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
}

// Threads renders the thread roots of a board, in the given order.
func Threads(posts []models.Post) string {
	rows := make([][]string, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, []string{
			fmt.Sprintf("#%d", p.ID),
			p.CreatedAt.Local().Format(ListingTime),
			truncate(p.Author, 18),
			truncate(strings.TrimSpace(p.SubjectOrEmpty()), 26),
		})
	}
	return Banner("THREAD LISTING") + table(rows, []int{6, 17, 18, 26},
		[]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
}

// Thread renders a root post followed by its replies. It returns "" for an
// empty thread.
func Thread(posts []models.Post) string {
	if len(posts) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(Banner(posts[0].SubjectOrEmpty()))
	for _, p := range posts {
		fmt.Fprintf(&b, "\n| #%-9d | %-26s posted on %-26s |\n%s",
			p.ID, truncate(p.Author, 26), p.CreatedAt.Local().Format(LongTime), rule)
		for _, line := range Wrap(p.Body, BodyWidth) {
			fmt.Fprintf(&b, "\n| %-76s |", line)
		}
		b.WriteString("\n" + rule)
	}
	return b.String()
}

// Wrap word-wraps text to width columns, hard-breaking words that do not fit.
func Wrap(text string, width int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	wrapped := wrap.String(wordwrap.String(text, width), width)
	return strings.Split(wrapped, "\n")
}

// InboxLine renders one private message.
func InboxLine(m models.PrivateMessage) string {
	marker := ""
	if !m.Read {
		marker = "(*NEW*) "
	}
	return fmt.Sprintf("%s[%s] Message from %s: \"%s\"",
		marker, m.SentAt.Local().Format(LongTime), m.Sender, m.Body)
}

// table renders rows as the lower part of a box whose banner was already
// written. minWidths fixes the column widths so the box stays Width wide.
func table(rows [][]string, minWidths []int, align []int) string {
	if len(rows) == 0 {
		return ""
	}

	var buf bytes.Buffer
	t := tablewriter.NewWriter(&buf)
	t.SetBorders(tablewriter.Border{Left: true, Right: true, Top: false, Bottom: true})
	t.SetCenterSeparator("+")
	t.SetColumnSeparator("|")
	t.SetRowSeparator("=")
	t.SetRowLine(true)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	t.SetColumnAlignment(align)
	for i, w := range minWidths {
		t.SetColMinWidth(i, w)
	}
	t.AppendBulk(rows)
	t.Render()

	return "\n" + strings.TrimRight(buf.String(), "\n")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
