package logutil

import (
	"github.com/sirupsen/logrus"

	"github.com/clowarden/clowarden/pkg/secretutil"
)

// Format selects the base logrus formatter the server logs with.
type Format string

const (
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
)

// NewFormatter builds the base formatter for format, wrapped so censorer
// redacts any registered secret before a line is written out.
func NewFormatter(format Format, censorer secretutil.Censorer) logrus.Formatter {
	var base logrus.Formatter
	switch format {
	case FormatPretty:
		base = &logrus.TextFormatter{FullTimestamp: true}
	default:
		base = &logrus.JSONFormatter{}
	}
	return NewFormatterWithCensor(base, censorer)
}
