package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MessageType discriminates message payload kinds.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeVoice  MessageType = "voice"
	MessageTypeSystem MessageType = "system"
)

// DeletedPlaceholder replaces the content of a soft-deleted message.
const DeletedPlaceholder = "This message was deleted"

// Attachment describes an uploaded file referenced by a message.
type Attachment struct {
	URI          string `json:"uri"`
	Size         int64  `json:"size"`
	Mime         string `json:"mime"`
	OriginalName string `json:"original_name,omitempty"`
}

// Complete reports whether the descriptor carries everything a message needs.
func (a *Attachment) Complete() bool {
	return a != nil && a.URI != "" && a.Mime != "" && a.Size > 0
}

// Reaction is a single user's reaction to a message. A user has at most one.
type Reaction struct {
	UserID int64     `json:"user_id"`
	Emoji  string    `json:"emoji"`
	At     time.Time `json:"at"`
}

// Receipt is a delivered/read mark for one recipient.
type Receipt struct {
	UserID int64     `json:"user_id"`
	At     time.Time `json:"at"`
}

// EditEntry is a snapshot of a message's content before an edit.
type EditEntry struct {
	Content  string    `json:"content"`
	EditedAt time.Time `json:"edited_at"`
}

// Message is one persisted chat message. The list-valued fields live in
// JSONB columns and are only ever mutated by single-statement guarded
// updates on the database side.
type Message struct {
	ID          int64           `db:"id" json:"id"`
	ChatID      int64           `db:"chat_id" json:"chat_id"`
	SenderID    int64           `db:"sender_id" json:"sender_id"`
	Type        MessageType     `db:"msg_type" json:"type"`
	Content     string          `db:"content" json:"content"`
	Attachment  AttachmentField `db:"attachment" json:"attachment"`
	ReplyToID   *int64          `db:"reply_to_id" json:"reply_to_id,omitempty"`
	Reactions   ReactionList    `db:"reactions" json:"reactions"`
	DeliveredTo ReceiptList     `db:"delivered_to" json:"delivered_to"`
	ReadBy      ReceiptList     `db:"read_by" json:"read_by"`
	Edited      bool            `db:"edited" json:"edited"`
	EditHistory EditHistory     `db:"edit_history" json:"edit_history,omitempty"`
	Deleted     bool            `db:"deleted" json:"deleted"`
	DeletedBy   *int64          `db:"deleted_by" json:"deleted_by,omitempty"`
	DeletedAt   *time.Time      `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// DeliveredToUser reports whether the user already has a delivery receipt.
func (m *Message) DeliveredToUser(userID int64) bool {
	return m.DeliveredTo.contains(userID)
}

// ReadByUser reports whether the user already has a read receipt.
func (m *Message) ReadByUser(userID int64) bool {
	return m.ReadBy.contains(userID)
}

// AttachmentField is a nullable JSONB attachment column.
type AttachmentField struct {
	*Attachment
}

func (f AttachmentField) Value() (driver.Value, error) {
	if f.Attachment == nil {
		return nil, nil
	}
	return json.Marshal(f.Attachment)
}

func (f *AttachmentField) Scan(src any) error {
	f.Attachment = nil
	if src == nil {
		return nil
	}
	raw, err := jsonbBytes(src)
	if err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var a Attachment
	if err := json.Unmarshal(raw, &a); err != nil {
		return err
	}
	f.Attachment = &a
	return nil
}

func (f AttachmentField) MarshalJSON() ([]byte, error) {
	if f.Attachment == nil {
		return []byte("null"), nil
	}
	return json.Marshal(f.Attachment)
}

func (f *AttachmentField) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		f.Attachment = nil
		return nil
	}
	var a Attachment
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	f.Attachment = &a
	return nil
}

// ReactionList is a JSONB array of reactions, one entry per user.
type ReactionList []Reaction

func (l ReactionList) Value() (driver.Value, error) {
	return jsonbValue(l, len(l) == 0)
}

func (l *ReactionList) Scan(src any) error {
	return jsonbScan(src, l)
}

// ByUser returns the user's reaction, if any.
func (l ReactionList) ByUser(userID int64) (Reaction, bool) {
	for _, r := range l {
		if r.UserID == userID {
			return r, true
		}
	}
	return Reaction{}, false
}

// ReceiptList is a JSONB array of receipts, one entry per recipient.
type ReceiptList []Receipt

func (l ReceiptList) Value() (driver.Value, error) {
	return jsonbValue(l, len(l) == 0)
}

func (l *ReceiptList) Scan(src any) error {
	return jsonbScan(src, l)
}

func (l ReceiptList) contains(userID int64) bool {
	for _, r := range l {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// EditHistory is a JSONB array of prior content snapshots, oldest first.
type EditHistory []EditEntry

func (l EditHistory) Value() (driver.Value, error) {
	return jsonbValue(l, len(l) == 0)
}

func (l *EditHistory) Scan(src any) error {
	return jsonbScan(src, l)
}

func jsonbValue(v any, empty bool) (driver.Value, error) {
	if empty {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

func jsonbScan(src any, dst any) error {
	raw, err := jsonbBytes(src)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		raw = []byte("[]")
	}
	return json.Unmarshal(raw, dst)
}

func jsonbBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
