package report

import (
	"errors"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"

	"github.com/afi-report/backend/internal/metrics"
	"github.com/afi-report/backend/pkg/logger"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Failure describes why a panel could not be produced. It is rendered inline
// in place of the panel.
type Failure struct {
	Severity Status `json:"severity"`
	Message  string `json:"message"`
}

func (f *Failure) Error() string {
	return string(f.Severity) + ": " + f.Message
}

// Warning builds a failure that renders as a warning rather than an error.
func Warning(format string, args ...any) error {
	return &Failure{Severity: StatusWarning, Message: fmt.Sprintf(format, args...)}
}

type Content struct {
	HTML    template.HTML
	Caption string
}

// Producer builds the content of one panel.
type Producer func() (Content, error)

// Panel is the outcome of one isolated render.
type Panel struct {
	ID         string        `json:"id"`
	Kind       PanelKind     `json:"kind"`
	Subheader  string        `json:"subheader,omitempty"`
	Status     Status        `json:"status"`
	Caption    string        `json:"caption,omitempty"`
	HTML       template.HTML `json:"html,omitempty"`
	Failure    *Failure      `json:"failure,omitempty"`
	DurationMS float64       `json:"duration_ms"`
}

// RenderSafely runs produce and never lets its error or panic escape: both
// become a Failure on the returned panel.
func RenderSafely(id string, kind PanelKind, produce Producer) (p Panel) {
	start := time.Now()
	p = Panel{ID: id, Kind: kind}

	defer func() {
		if r := recover(); r != nil {
			p.HTML = ""
			p.Caption = ""
			p.Failure = &Failure{Severity: StatusError, Message: fmt.Sprintf("panel %s failed: %v", id, r)}
			logger.Error("Panel panicked", zap.String("panel", id), zap.Any("panic", r))
		}

		p.Status = StatusOK
		if p.Failure != nil {
			p.Status = p.Failure.Severity
		}
		elapsed := time.Since(start)
		p.DurationMS = float64(elapsed.Microseconds()) / 1000

		metrics.PanelRenders.WithLabelValues(string(kind), string(p.Status)).Inc()
		metrics.PanelRenderDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	}()

	content, err := produce()
	if err != nil {
		p.Failure = asFailure(err)
		logger.Warn("Panel render failed",
			zap.String("panel", id),
			zap.String("severity", string(p.Failure.Severity)),
			zap.String("message", p.Failure.Message),
		)
		return p
	}

	p.HTML = content.HTML
	p.Caption = content.Caption
	return p
}

func asFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Severity: StatusError, Message: err.Error()}
}
