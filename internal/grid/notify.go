package grid

import (
	"context"
	"log/slog"

	"github.com/kazz187/crewdesk/pkg/clog"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

// Notification is a transient user-facing message.
type Notification struct {
	Severity Severity
	Message  string
	RowID    RowID
	Err      error
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// SlogNotifier writes notifications to the default logger.
type SlogNotifier struct{}

func (SlogNotifier) Notify(ctx context.Context, n Notification) {
	attrs := []any{}
	if !n.RowID.IsZero() {
		attrs = append(attrs, "row_id", n.RowID.String())
	}
	if n.Err != nil {
		clog.AddError(ctx, n.Err)
		attrs = append(attrs, "error", n.Err.Error())
	}
	if n.Severity == SeverityError {
		slog.ErrorContext(ctx, n.Message, attrs...)
		return
	}
	slog.InfoContext(ctx, n.Message, attrs...)
}
