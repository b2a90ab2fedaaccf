// Package notify carries the completion side effects of a finished
// service: the mark-complete write and the optional announcement to a
// Discord channel. Both are best-effort; a failed call is logged and never
// blocks or reverses the session's terminal transition.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// CompletionStore is the persistence half of the outbound call.
type CompletionStore interface {
	MarkComplete(planID, notes string) error
}

type Notifier struct {
	store        CompletionStore
	webhookID    string
	webhookToken string
	session      *discordgo.Session
}

func New(store CompletionStore) *Notifier {
	return &Notifier{store: store}
}

// WithWebhook enables the Discord announcement. Webhook execution needs no
// bot token, so the session is created without credentials.
func (n *Notifier) WithWebhook(id, token string) *Notifier {
	if id == "" || token == "" {
		return n
	}
	s, err := discordgo.New("")
	if err != nil {
		log.Printf("discord session: %v", err)
		return n
	}
	n.webhookID = id
	n.webhookToken = token
	n.session = s
	return n
}

// MarkComplete persists completion and posts the announcement. Errors are
// logged only; the session that invoked this has already finished.
func (n *Notifier) MarkComplete(ctx context.Context, planID, notes string) {
	if n == nil {
		return
	}

	if n.store != nil {
		if err := n.store.MarkComplete(planID, notes); err != nil {
			log.Printf("mark-complete error: plan %s: %v", planID, err)
		}
	}

	if n.session == nil {
		return
	}

	content := fmt.Sprintf("Service complete (plan %s).", planID)
	if notes != "" {
		content = fmt.Sprintf("Service complete (plan %s).\nNotes: %s", planID, notes)
	}

	go func() {
		_, err := n.session.WebhookExecute(n.webhookID, n.webhookToken, false, &discordgo.WebhookParams{
			Content: content,
		})
		if err != nil {
			log.Printf("completion announcement: %v", err)
		}
	}()
}
