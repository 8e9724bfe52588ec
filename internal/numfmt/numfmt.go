// Package numfmt renders integers for display.
package numfmt

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders integers, optionally with locale digit grouping.
type Formatter struct {
	printer *message.Printer
}

// New returns a formatter. When grouping is false the locale is ignored and
// numbers are rendered in plain base 10.
func New(grouping bool, locale string) (Formatter, error) {
	if !grouping {
		return Formatter{}, nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Formatter{}, err
	}
	return Formatter{printer: message.NewPrinter(tag)}, nil
}

// Int formats n.
func (f Formatter) Int(n int) string {
	if f.printer == nil {
		return strconv.Itoa(n)
	}
	return f.printer.Sprintf("%d", n)
}
