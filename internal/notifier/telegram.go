package notifier

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/HSMDove/feedpulse/internal/model"
)

type TelegramNotifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	contents ContentMarker
}

func NewTelegramNotifier(bot *tgbotapi.BotAPI, chatID int64, contents ContentMarker) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID, contents: contents}
}

func (n *TelegramNotifier) Notify(ctx context.Context, folder model.Folder, contents []model.Content) error {
	for _, c := range contents {
		text := fmt.Sprintf("%s\n\n%s\n#%s", c.Title, c.Link, folder.Name)
		if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
			log.Printf("[ERROR] telegram delivery failed for content %d: %v", c.ID, err)
			continue
		}
		if err := n.contents.MarkNotified(ctx, c.ID); err != nil {
			log.Printf("[ERROR] failed to mark content %d notified: %v", c.ID, err)
		}
	}
	return nil
}
