package assistant

import "github.com/dvloznov/saldo-certo/internal/export"

// Keyboard selects the buttons attached to a message.
type Keyboard int

const (
	// KeyboardNone attaches no buttons.
	KeyboardNone Keyboard = iota
	// KeyboardMenu attaches the main menu.
	KeyboardMenu
	// KeyboardCategories attaches the category choices for Message.PendingID.
	KeyboardCategories
)

// Message is one outgoing chat message. Exactly one of Text and Document
// is set.
type Message struct {
	Text      string
	Document  *export.File
	Keyboard  Keyboard
	PendingID string
}

// Reply is the ordered list of messages answering one user input.
type Reply struct {
	Messages []Message
}

func (r *Reply) text(text string, kb Keyboard) {
	r.Messages = append(r.Messages, Message{Text: text, Keyboard: kb})
}

func (r *Reply) prompt(text, pendingID string) {
	r.Messages = append(r.Messages, Message{Text: text, Keyboard: KeyboardCategories, PendingID: pendingID})
}

func (r *Reply) document(f *export.File, kb Keyboard) {
	r.Messages = append(r.Messages, Message{Document: f, Keyboard: kb})
}

// Texts returns the text of every text message, for logs and tests.
func (r Reply) Texts() []string {
	var out []string
	for _, m := range r.Messages {
		if m.Document == nil {
			out = append(out, m.Text)
		}
	}
	return out
}
