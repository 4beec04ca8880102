package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

type ReadableTextHandlerOptions struct {
	// The minimum level to output.
	Level slog.Leveler
	// Disables the colored level output.
	NoColor bool
}

// A slog handler that outputs human readable lines like "INFO  message key=value".
type ReadableTextHandler struct {
	options *ReadableTextHandlerOptions
	writer  io.Writer
	mutex   *sync.Mutex
	attrs   []slog.Attr
	groups  []string
}

func NewReadableTextHandler(writer io.Writer, options *ReadableTextHandlerOptions) *ReadableTextHandler {
	if options == nil {
		options = &ReadableTextHandlerOptions{}
	}
	if options.Level == nil {
		options.Level = slog.LevelInfo
	}
	return &ReadableTextHandler{
		options: options,
		writer:  writer,
		mutex:   &sync.Mutex{},
	}
}

func (h *ReadableTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.options.Level.Level()
}

func (h *ReadableTextHandler) Handle(_ context.Context, record slog.Record) error {
	builder := &strings.Builder{}
	builder.WriteString(h.levelString(record.Level))
	builder.WriteString(" ")
	builder.WriteString(record.Message)
	for _, attr := range h.attrs {
		h.appendAttr(builder, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		h.appendAttr(builder, h.qualify(attr))
		return true
	})
	builder.WriteString("\n")

	h.mutex.Lock()
	defer h.mutex.Unlock()
	_, err := io.WriteString(h.writer, builder.String())
	return err
}

func (h *ReadableTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandler := h.clone()
	for _, attr := range attrs {
		newHandler.attrs = append(newHandler.attrs, h.qualify(attr))
	}
	return newHandler
}

func (h *ReadableTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newHandler := h.clone()
	newHandler.groups = append(newHandler.groups, name)
	return newHandler
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

func (h *ReadableTextHandler) clone() *ReadableTextHandler {
	return &ReadableTextHandler{
		options: h.options,
		writer:  h.writer,
		mutex:   h.mutex,
		attrs:   append([]slog.Attr{}, h.attrs...),
		groups:  append([]string{}, h.groups...),
	}
}

func (h *ReadableTextHandler) qualify(attr slog.Attr) slog.Attr {
	if len(h.groups) > 0 {
		attr.Key = strings.Join(h.groups, ".") + "." + attr.Key
	}
	return attr
}

func (h *ReadableTextHandler) appendAttr(builder *strings.Builder, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	value := attr.Value.String()
	if strings.ContainsAny(value, " \t\"") {
		value = fmt.Sprintf("%q", value)
	}
	builder.WriteString(" ")
	builder.WriteString(h.colorize(color.FgHiBlack, attr.Key+"="))
	builder.WriteString(value)
}

func (h *ReadableTextHandler) levelString(level slog.Level) string {
	text := fmt.Sprintf("%-5s", level.String())
	switch {
	case level >= slog.LevelError:
		return h.colorize(color.FgRed, text)
	case level >= slog.LevelWarn:
		return h.colorize(color.FgYellow, text)
	case level >= slog.LevelInfo:
		return h.colorize(color.FgBlue, text)
	default:
		return h.colorize(color.FgHiBlack, text)
	}
}

func (h *ReadableTextHandler) colorize(attribute color.Attribute, text string) string {
	if h.options.NoColor {
		return text
	}
	// color.NoColor is set by fatih/color when the output is no terminal
	return color.New(attribute).Sprint(text)
}
