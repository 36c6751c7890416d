// Package terminal implements the line-oriented text protocol spoken with
// BBS clients: CRLF-terminated output, prompts without a line ending, and
// UTF-8 input lines read under an idle deadline.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxLineLength bounds a single input line in bytes.
const MaxLineLength = 4096

// CRLF is the line terminator sent to clients.
const CRLF = "\r\n"

var (
	// ErrInvalidInput is returned when a line is not valid UTF-8.
	ErrInvalidInput = errors.New("input is not valid UTF-8")

	// ErrLineTooLong is returned when a line exceeds MaxLineLength.
	ErrLineTooLong = errors.New("input line too long")
)

// deadliner is implemented by net.Conn.
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// Terminal wraps one client connection.
//
// A Terminal is owned by a single session and is not safe for concurrent use.
type Terminal struct {
	r    *bufio.Reader
	w    io.Writer
	dl   deadliner
	idle time.Duration

	// stop, when set, ends reads once cancelled.
	stop context.Context
}

// New returns a Terminal over rw. When rw supports read deadlines and idle
// is positive, every read must complete within idle.
func New(rw io.ReadWriter, idle time.Duration) *Terminal {
	t := &Terminal{
		r:    bufio.NewReaderSize(rw, MaxLineLength),
		w:    rw,
		idle: idle,
	}
	if dl, ok := rw.(deadliner); ok {
		t.dl = dl
	}
	return t
}

// StopOn makes ReadLine fail with ctx's error once ctx is cancelled. The
// check runs after the idle deadline is armed, so a shutdown that has
// already interrupted the connection is never overridden by a fresh
// deadline.
func (t *Terminal) StopOn(ctx context.Context) {
	t.stop = ctx
}

// Send writes msg followed by CRLF. Bare line feeds inside msg are
// converted to CRLF.
func (t *Terminal) Send(msg string) error {
	return t.Write(normalize(msg) + CRLF)
}

// Sendf formats according to a format specifier and sends the result.
func (t *Terminal) Sendf(format string, args ...any) error {
	return t.Send(fmt.Sprintf(format, args...))
}

// Write writes s as is, without a trailing line ending.
func (t *Terminal) Write(s string) error {
	_, err := io.WriteString(t.w, s)
	return err
}

// Prompt writes label and reads the answer.
func (t *Terminal) Prompt(label string) (string, error) {
	if err := t.Write(normalize(label)); err != nil {
		return "", err
	}
	return t.ReadLine()
}

// ReadLine reads one line, stripped of its terminator, surrounding
// whitespace and control characters. io.EOF and timeout errors are returned
// unchanged.
func (t *Terminal) ReadLine() (string, error) {
	if t.dl != nil && t.idle > 0 {
		if err := t.dl.SetReadDeadline(time.Now().Add(t.idle)); err != nil {
			return "", err
		}
	}
	if t.stop != nil {
		if err := t.stop.Err(); err != nil {
			return "", err
		}
	}

	line, err := t.r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return "", ErrLineTooLong
	}
	if err != nil {
		// A final unterminated line is still a line.
		if !errors.Is(err, io.EOF) || len(line) == 0 {
			return "", err
		}
	}

	if !utf8.Valid(line) {
		return "", ErrInvalidInput
	}
	return strings.TrimSpace(Scrub(string(line))), nil
}

// Scrub removes control characters such as BEL, backspace and escape, which
// clients could use to garble other users' terminals. Tabs are kept.
func Scrub(s string) string {
	return strings.Map(func(r rune) rune {
		if r != '\t' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// IsTimeout reports whether err is a read deadline expiry.
func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// normalize converts bare LF to CRLF, leaving existing CRLF intact.
func normalize(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", CRLF)
}
