package preview

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-video-intake/internal/domain"
	"github.com/go-video-intake/internal/infrastructure/smtp"
)

// Processor is anything that turns an accepted submission into a preview.
type Processor interface {
	Process(ctx context.Context, req domain.PreviewRequest) (*domain.PreviewResult, error)
}

// Notifier decorates a Processor and mails the submitter once a preview exists.
type Notifier struct {
	next   Processor
	mailer smtp.Mailer
}

func NewNotifier(next Processor, mailer smtp.Mailer) *Notifier {
	return &Notifier{next: next, mailer: mailer}
}

// Process delegates, then sends the confirmation under the same ctx, so the
// whole hand-off stays inside the caller's deadline. Mail failures are logged only.
func (n *Notifier) Process(ctx context.Context, req domain.PreviewRequest) (*domain.PreviewResult, error) {
	res, err := n.next.Process(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := n.mailer.SendEmail(ctx, req.Email, "Your video translation preview is ready", body(req, res)); err != nil {
		slog.Warn("failed to send preview confirmation", "preview_id", res.PreviewID, "video_id", req.VideoID, "err", err)
	}
	return res, nil
}

func body(req domain.PreviewRequest, res *domain.PreviewResult) string {
	msg := fmt.Sprintf("Thanks for your submission.\n\nVideo: %s\nPreview ID: %s\n", req.URL, res.PreviewID)
	if res.SuggestedPriceUSD != nil {
		msg += fmt.Sprintf("Estimated price: $%.2f\n", *res.SuggestedPriceUSD)
	}
	return msg
}
