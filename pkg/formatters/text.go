package formatters

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/artcraftzone/hierlog/pkg/types"
)

var levelStyles = map[types.Level]lipgloss.Style{
	types.LevelDebug:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
	types.LevelInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
	types.LevelWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
	types.LevelError:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")),
	types.LevelCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
}

// LineFormatter produces the sink line
// "{timestamp} - {level} - {qualifiedName} - {message}".
type LineFormatter struct {
	Options FormatOptions
}

// NewLineFormatter creates a line formatter with default options
func NewLineFormatter() *LineFormatter {
	return &LineFormatter{
		Options: DefaultFormatOptions(),
	}
}

// Format renders one line, newline terminated.
func (f *LineFormatter) Format(t time.Time, level types.Level, logger, message string) []byte {
	var result strings.Builder

	result.WriteString(f.formatTimestamp(t))
	result.WriteString(" - ")
	result.WriteString(f.formatLevel(level))
	result.WriteString(" - ")
	result.WriteString(logger)
	result.WriteString(" - ")
	result.WriteString(message)

	if !strings.HasSuffix(message, "\n") {
		result.WriteString("\n")
	}

	return []byte(result.String())
}

// formatTimestamp formats a timestamp according to the formatter options
func (f *LineFormatter) formatTimestamp(t time.Time) string {
	layout := f.Options.TimestampFormat
	if layout == "" {
		layout = TimestampFormat
	}
	if f.Options.TimeZone != nil {
		t = t.In(f.Options.TimeZone)
	}
	return t.Format(layout)
}

// formatLevel formats a log level according to the formatter options
func (f *LineFormatter) formatLevel(level types.Level) string {
	if !f.Options.Color {
		return level.String()
	}
	return ColorLevel(level)
}

// ColorLevel returns the level name rendered with its terminal colour.
// Unknown levels are returned uncoloured.
func ColorLevel(level types.Level) string {
	style, ok := levelStyles[level]
	if !ok {
		return level.String()
	}
	return style.Render(level.String())
}
