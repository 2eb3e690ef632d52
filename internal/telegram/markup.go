package telegram

import (
	tele "gopkg.in/telebot.v3"

	"github.com/dvloznov/saldo-certo/internal/assistant"
	"github.com/dvloznov/saldo-certo/internal/domain"
)

// MenuMarkup builds the main menu keyboard.
func MenuMarkup() *tele.ReplyMarkup {
	rows := make([][]tele.InlineButton, 0, len(assistant.Menu))
	for _, items := range assistant.Menu {
		row := make([]tele.InlineButton, 0, len(items))
		for _, item := range items {
			row = append(row, tele.InlineButton{Text: item.Label, Data: EncodeMenu(item.Action)})
		}
		rows = append(rows, row)
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// CategoryMarkup builds the category choices for one pending transaction,
// one button per row.
func CategoryMarkup(pendingID string) *tele.ReplyMarkup {
	rows := make([][]tele.InlineButton, 0, len(domain.CategoryChoices))
	for _, c := range domain.CategoryChoices {
		rows = append(rows, []tele.InlineButton{{Text: c.Label, Data: EncodeCategory(pendingID, c.Slug)}})
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

func markupFor(msg assistant.Message) *tele.ReplyMarkup {
	switch msg.Keyboard {
	case assistant.KeyboardMenu:
		return MenuMarkup()
	case assistant.KeyboardCategories:
		return CategoryMarkup(msg.PendingID)
	default:
		return nil
	}
}

// sendOptions drops a nil markup so telebot sends a plain message.
func sendOptions(markup *tele.ReplyMarkup) []interface{} {
	if markup == nil {
		return nil
	}
	return []interface{}{markup}
}
