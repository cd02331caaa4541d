package services

import (
	"fmt"
	"log"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Notifier delivers best-effort "countdown finished" messages. Failures
// are logged and swallowed: notification never blocks a state
// transition.
type Notifier interface {
	Notify(message string)
}

// LineNotifier pushes notifications to a LINE user.
type LineNotifier struct {
	bot *messaging_api.MessagingApiAPI
	to  string
}

func NewLineNotifier(channelToken, to string) (*LineNotifier, error) {
	if to == "" {
		return nil, fmt.Errorf("notification target is empty")
	}
	bot, err := messaging_api.NewMessagingApiAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE bot client: %w", err)
	}
	return &LineNotifier{bot: bot, to: to}, nil
}

func (n *LineNotifier) Notify(message string) {
	_, err := n.bot.PushMessage(
		&messaging_api.PushMessageRequest{
			To: n.to,
			Messages: []messaging_api.MessageInterface{
				&messaging_api.TextMessage{Text: message},
			},
		},
		"",
	)
	if err != nil {
		log.Printf("Failed to push notification: %v", err)
	}
}

// NopNotifier is used when no notification channel is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(string) {}
