// Package printer writes user-facing CLI output.
package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hay-kot/criterio"
)

// ANSI color codes (Tokyo Night palette)
const (
	ColorReset = "\033[0m"
	ColorRed   = "\033[38;2;215;95;107m"  // #d75f6b
	ColorGreen = "\033[38;2;158;206;106m" // #9ece6a
	ColorYell  = "\033[38;2;224;175;104m" // #e0af68
	ColorGray  = "\033[38;2;86;95;137m"   // #565f89
	ColorBold  = "\033[1m"
)

// Symbols
const (
	Check = "✔"
	Cross = "✘"
	Dot   = "•"
)

type ctxKey struct{}

// Printer handles formatted output with colors.
type Printer struct {
	writer io.Writer
}

// New creates a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{writer: w}
}

// NewContext returns a context carrying p.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx retrieves the printer from context, or creates one writing to stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stderr)
}

// FatalError prints an error box. It does not exit.
func (p *Printer) FatalError(err error) {
	if err == nil {
		return
	}

	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		p.validationErrors(err, fieldErrs)
		return
	}

	p.write(paint(ColorRed, "╭ Error"))
	p.write(paint(ColorRed, "│") + " " + paint(ColorGray, err.Error()))
	p.write(paint(ColorRed, "╵"))
}

// validationErrors lists each field error under the wrapping context, e.g.
// "load config: invalid config".
func (p *Printer) validationErrors(wrapped error, fieldErrs criterio.FieldErrors) {
	prefix := ""
	if idx := strings.Index(wrapped.Error(), fieldErrs.Error()); idx > 0 {
		prefix = strings.TrimSuffix(wrapped.Error()[:idx], ": ")
	}

	p.write(paint(ColorRed, "╭ Validation Error"))
	if prefix != "" {
		p.write(paint(ColorRed, "│") + " " + paint(ColorGray, prefix))
		p.write(paint(ColorRed, "│"))
	}

	for _, fe := range fieldErrs {
		line := paint(ColorRed, "│") + " " + paint(ColorRed, Cross) + " "
		if fe.Field != "" {
			line += paint(ColorGray, fe.Field+": ")
		}
		p.write(line + fe.Err.Error())
	}

	p.write(paint(ColorRed, "╵"))
}

// Errorf prints an error message in red.
func (p *Printer) Errorf(format string, args ...any) {
	p.write(paint(ColorRed, Cross+" "+fmt.Sprintf(format, args...)))
}

// Successf prints a success message in green.
func (p *Printer) Successf(format string, args ...any) {
	p.write(paint(ColorGreen, Check+" "+fmt.Sprintf(format, args...)))
}

// Infof prints an info message in gray.
func (p *Printer) Infof(format string, args ...any) {
	p.write(paint(ColorGray, Dot+" "+fmt.Sprintf(format, args...)))
}

// Warnf prints a warning message in yellow.
func (p *Printer) Warnf(format string, args ...any) {
	p.write(paint(ColorYell, Dot+" "+fmt.Sprintf(format, args...)))
}

// Printf prints a plain line.
func (p *Printer) Printf(format string, args ...any) {
	p.write(fmt.Sprintf(format, args...))
}

// Numbered prints entries as a 1-based numbered list.
func (p *Printer) Numbered(entries []string) {
	width := len(fmt.Sprint(len(entries)))
	for i, e := range entries {
		p.write(paint(ColorGray, fmt.Sprintf("%*d.", width, i+1)) + " " + e)
	}
}

// StatusOK returns a green checkmark with msg for use in tables.
func StatusOK(msg string) string {
	return paint(ColorGreen, Check) + " " + msg
}

// StatusWarn returns a yellow dot with msg for use in tables.
func StatusWarn(msg string) string {
	return paint(ColorYell, Dot) + " " + msg
}

func (p *Printer) write(line string) {
	_, _ = io.WriteString(p.writer, line+"\n")
}

func paint(color, text string) string {
	return color + text + ColorReset
}
