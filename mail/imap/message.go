package imap

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/emersion/go-message/mail"
)

// RawMessage is a message as fetched from the provider.
type RawMessage struct {
	UID uint32
	Raw []byte
}

// StoredMessage is the document content written for each fetched message.
type StoredMessage struct {
	MessageID string    `json:"message_id,omitempty"`
	Subject   string    `json:"subject"`
	From      string    `json:"from"`
	Date      time.Time `json:"date"`
	Size      int       `json:"size"`
	Raw       []byte    `json:"raw"`
}

// NewStoredMessage extracts the headers of raw. Messages whose headers
// cannot be parsed are still kept, with only Size and Raw set.
func NewStoredMessage(raw []byte) StoredMessage {
	msg := StoredMessage{Size: len(raw), Raw: raw}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if mr == nil {
		log.Debug("Unparseable message headers: %v", err)
		return msg
	}
	defer mr.Close()

	h := mr.Header
	if subject, err := h.Subject(); err == nil {
		msg.Subject = subject
	}
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		if from[0].Name != "" {
			msg.From = from[0].Name + " <" + from[0].Address + ">"
		} else {
			msg.From = from[0].Address
		}
	}
	if date, err := h.Date(); err == nil {
		msg.Date = date
	}
	if id, err := h.MessageID(); err == nil {
		msg.MessageID = id
	}
	return msg
}

// Encode returns the JSON document content for m.
func (m StoredMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeStoredMessage parses document content written by Encode.
func DecodeStoredMessage(content []byte) (StoredMessage, error) {
	var m StoredMessage
	err := json.Unmarshal(content, &m)
	return m, err
}
