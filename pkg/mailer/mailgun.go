package mailer

import (
	"context"
	"errors"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun delivers email jobs through the Mailgun API.
type Mailgun struct {
	client *mg.MailgunImpl
	sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{
		client: mg.NewMailgun(domain, apiKey),
		sender: sender,
	}
}

// Deliver sends one job. The HTML part is optional; the text part is not.
func (m *Mailgun) Deliver(ctx context.Context, job EmailJob) error {
	if job.To == "" {
		return errors.New("email job has no recipient")
	}

	msg := m.client.NewMessage(m.sender, job.Subject, job.Text, job.To)
	if job.HTML != "" {
		msg.SetHtml(job.HTML)
	}

	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}
