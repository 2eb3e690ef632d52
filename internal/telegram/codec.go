package telegram

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/saldo-certo/internal/assistant"
)

// ErrBadCallback is returned for callback data this bot did not produce.
var ErrBadCallback = errors.New("malformed callback data")

const (
	prefixMenu     = "menu"
	prefixCategory = "cat"
	sep            = "|"
)

// CallbackKind tells which button produced a callback.
type CallbackKind int

const (
	// CallbackMenu is a main menu button.
	CallbackMenu CallbackKind = iota + 1
	// CallbackCategory is a category choice for a pending transaction.
	CallbackCategory
)

// Callback is decoded button data.
type Callback struct {
	Kind      CallbackKind
	Action    assistant.Action
	PendingID string
	Slug      string
}

// EncodeMenu returns the data of a main menu button.
func EncodeMenu(action assistant.Action) string {
	return prefixMenu + sep + string(action)
}

// EncodeCategory returns the data of a category button. Telegram limits
// callback data to 64 bytes; a UUID pending id and the longest slug fit.
func EncodeCategory(pendingID, slug string) string {
	return prefixCategory + sep + pendingID + sep + slug
}

// DecodeCallback parses button data produced by EncodeMenu or
// EncodeCategory.
func DecodeCallback(data string) (Callback, error) {
	parts := strings.Split(data, sep)
	switch {
	case len(parts) == 2 && parts[0] == prefixMenu:
		action, ok := assistant.ParseAction(parts[1])
		if !ok {
			return Callback{}, fmt.Errorf("DecodeCallback: unknown action %q: %w", parts[1], ErrBadCallback)
		}
		return Callback{Kind: CallbackMenu, Action: action}, nil
	case len(parts) == 3 && parts[0] == prefixCategory:
		if parts[1] == "" {
			return Callback{}, fmt.Errorf("DecodeCallback: empty pending id: %w", ErrBadCallback)
		}
		return Callback{Kind: CallbackCategory, PendingID: parts[1], Slug: parts[2]}, nil
	default:
		return Callback{}, fmt.Errorf("DecodeCallback: %q: %w", data, ErrBadCallback)
	}
}
