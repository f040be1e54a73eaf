package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/mailer"
	pubnub "github.com/pubnub/go"

	"eventify-api/utils"
)

// MailNotifier sends entry confirmations through the app's configured mail
// settings. The circuit breaker keeps a dead mail provider from being
// retried on every single scan.
type MailNotifier struct {
	app     core.App
	breaker *utils.CircuitBreaker
}

func NewMailNotifier(app core.App) *MailNotifier {
	return &MailNotifier{
		app:     app,
		breaker: utils.NewCircuitBreaker("entry-mail"),
	}
}

func (n *MailNotifier) SendEntryConfirmation(ctx context.Context, email, eventTitle, ticketCode string) error {
	if eventTitle == "" {
		eventTitle = "the event"
	}

	message := &mailer.Message{
		From: mail.Address{
			Name:    n.app.Settings().Meta.SenderName,
			Address: n.app.Settings().Meta.SenderAddress,
		},
		To:      []mail.Address{{Address: email}},
		Subject: fmt.Sprintf("Welcome to %s!", eventTitle),
		HTML: fmt.Sprintf(
			`<h1>You're in!</h1>
			<p>Your ticket <strong>%s</strong> was just validated at the entrance of %s.</p>
			<p>Enjoy the event!</p>`,
			ticketCode, eventTitle,
		),
	}

	return n.breaker.Execute(ctx, func() error {
		return n.app.NewMailClient().Send(message)
	})
}

// PubNubPublisher pushes check-ins to the per-event organizer dashboard
// channel.
type PubNubPublisher struct {
	pn *pubnub.PubNub
}

func NewPubNubPublisher(pn *pubnub.PubNub) *PubNubPublisher {
	return &PubNubPublisher{pn: pn}
}

func (p *PubNubPublisher) PublishCheckin(eventID string, payload map[string]any) {
	channel := fmt.Sprintf("event-%s-checkins", eventID)

	_, _, err := p.pn.Publish().
		Channel(channel).
		Message(payload).
		Execute()
	if err != nil {
		slog.Error("checkin publish failed", "channel", channel, "error", err)
	}
}
