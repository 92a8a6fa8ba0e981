package formatters

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/artcraftzone/hierlog/pkg/types"
)

// JoinArgs builds a log message from the arguments of a log call.
// Strings are used as-is, anything else is rendered with %#v, and the
// parts are joined with " - ".
func JoinArgs(args ...interface{}) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			parts[i] = v
		case error:
			parts[i] = v.Error()
		case fmt.Stringer:
			parts[i] = v.String()
		default:
			parts[i] = fmt.Sprintf("%#v", v)
		}
	}
	return strings.Join(parts, " - ")
}

// ExtraInfo renders the call-site and frame context appended to a line:
//
//	" (DAT:main.go, fn:run, ln:12, absFrame: 300, frame: 40)"
//	" (absFrame: 300, frame: 40)"
func ExtraInfo(site *types.CallSite, absFrame, frame int64) string {
	var b strings.Builder
	b.WriteString(" (")
	if site != nil {
		b.WriteString("DAT:")
		b.WriteString(site.File)
		b.WriteString(", fn:")
		b.WriteString(site.Function)
		b.WriteString(", ln:")
		b.WriteString(strconv.Itoa(site.Line))
		b.WriteString(", ")
	}
	b.WriteString("absFrame: ")
	b.WriteString(strconv.FormatInt(absFrame, 10))
	b.WriteString(", frame: ")
	b.WriteString(strconv.FormatInt(frame, 10))
	b.WriteString(")")
	return b.String()
}

// ItemLine is the message handed to sinks: "{source} - {message}{extraInfo}".
func ItemLine(item *types.LogItem) string {
	return item.Source + " - " + item.Message + item.ExtraInfo
}

// StatusLine is the status overlay text:
// "{level} - {source} - {message}{extraInfo}".
func StatusLine(item *types.LogItem) string {
	return item.Level.String() + " - " + item.Source + " - " + item.Message + item.ExtraInfo
}

// RemoteLine is the delivery format of the remote sink:
// "[{LEVEL}] {logger} - {source} - {message} - ({file}:{line})".
// An empty source and a missing call site are left out.
func RemoteLine(item *types.LogItem, logger string) string {
	parts := []string{"[" + item.Level.String() + "]", logger}
	if item.Source != "" {
		parts = append(parts, item.Source)
	}
	parts = append(parts, item.Message)
	if item.CallSite != nil {
		parts = append(parts, "("+item.CallSite.File+":"+strconv.Itoa(item.CallSite.Line)+")")
	}
	return strings.Join(parts, " - ")
}
