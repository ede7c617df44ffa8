package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, chat_id, sender_id, msg_type, content, attachment, reply_to_id,
        reactions, delivered_to, read_by, edited, edit_history, deleted, deleted_by, deleted_at, created_at`

// MessageRepository defines interactions with stored messages. Every
// list-mutating method is a single guarded SQL statement so concurrent
// receipts and reactions never lose updates.
type MessageRepository interface {
	Create(ctx context.Context, msg models.Message) (models.Message, error)
	Get(ctx context.Context, messageID int64) (models.Message, error)
	Page(ctx context.Context, chatID int64, limit, offset int) ([]models.Message, error)
	Search(ctx context.Context, chatID int64, query string, limit int) ([]models.Message, error)
	Edit(ctx context.Context, messageID, senderID int64, newContent string, at time.Time) (models.Message, error)
	SoftDelete(ctx context.Context, messageID, actorID int64, at time.Time) error
	MarkDelivered(ctx context.Context, messageID, userID int64, at time.Time) (bool, error)
	MarkRead(ctx context.Context, messageID, userID int64, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, chatID, userID int64, at time.Time) (int64, error)
	AddReaction(ctx context.Context, messageID, userID int64, emoji string, at time.Time) (models.Reaction, error)
	RemoveReaction(ctx context.Context, messageID, userID int64) (bool, error)
	UnreadCount(ctx context.Context, chatID, userID int64) (int, error)
	UnreadCounts(ctx context.Context, userID int64) (map[int64]int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create persists a message. The sender's own delivery receipt is written as
// part of the insert so the response already carries it.
func (r *MessageRepo) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	var stored models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages
        (chat_id, sender_id, msg_type, content, attachment, reply_to_id, delivered_to)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+messageColumns,
		msg.ChatID, msg.SenderID, msg.Type, msg.Content, msg.Attachment, msg.ReplyToID, msg.DeliveredTo).
		StructScan(&stored)
	return stored, err
}

// Get retrieves a single message.
func (r *MessageRepo) Get(ctx context.Context, messageID int64) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// Page returns one page of chat messages, newest first.
func (r *MessageRepo) Page(ctx context.Context, chatID int64, limit, offset int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE chat_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, chatID, limit, offset)
	return msgs, err
}

// Search finds non-deleted messages in a chat by content substring.
func (r *MessageRepo) Search(ctx context.Context, chatID int64, query string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE chat_id=$1 AND deleted=FALSE AND content ILIKE '%' || $2 || '%'
        ORDER BY created_at DESC, id DESC LIMIT $3`, chatID, query, limit)
	return msgs, err
}

// Edit replaces the content of a text message and snapshots the previous
// content into the edit history, all in one statement.
func (r *MessageRepo) Edit(ctx context.Context, messageID, senderID int64, newContent string, at time.Time) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `UPDATE messages
        SET content = $3,
            edited = TRUE,
            edit_history = edit_history || jsonb_build_array(jsonb_build_object('content', content, 'edited_at', $4::text))
        WHERE id = $1 AND sender_id = $2 AND msg_type = 'text' AND deleted = FALSE
        RETURNING `+messageColumns,
		messageID, senderID, newContent, at.UTC().Format(time.RFC3339Nano)).
		StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// SoftDelete tombstones the message content and records the deleting actor.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID, actorID int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages
        SET deleted = TRUE, deleted_by = $2, deleted_at = $3, content = $4
        WHERE id = $1 AND deleted = FALSE`,
		messageID, actorID, at, models.DeletedPlaceholder)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// MarkDelivered appends a delivery receipt unless one already exists or the
// user is the sender. Reports whether the receipt was applied.
func (r *MessageRepo) MarkDelivered(ctx context.Context, messageID, userID int64, at time.Time) (bool, error) {
	return r.appendReceipt(ctx, "delivered_to", messageID, userID, at)
}

// MarkRead appends a read receipt under the same guards as MarkDelivered.
func (r *MessageRepo) MarkRead(ctx context.Context, messageID, userID int64, at time.Time) (bool, error) {
	return r.appendReceipt(ctx, "read_by", messageID, userID, at)
}

func (r *MessageRepo) appendReceipt(ctx context.Context, column string, messageID, userID int64, at time.Time) (bool, error) {
	entry, guard, err := receiptArgs(userID, at)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE messages
        SET `+column+` = `+column+` || $3::jsonb
        WHERE id = $1 AND sender_id <> $2 AND NOT (`+column+` @> $4::jsonb)`,
		messageID, userID, entry, guard)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	return count > 0, err
}

// MarkAllRead appends a read receipt to every unread message in the chat
// authored by someone else. Returns how many messages were marked.
func (r *MessageRepo) MarkAllRead(ctx context.Context, chatID, userID int64, at time.Time) (int64, error) {
	entry, guard, err := receiptArgs(userID, at)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE messages
        SET read_by = read_by || $3::jsonb
        WHERE chat_id = $1 AND sender_id <> $2 AND deleted = FALSE AND NOT (read_by @> $4::jsonb)`,
		chatID, userID, entry, guard)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AddReaction replaces-or-inserts the user's reaction in one statement:
// any previous entry for the user is filtered out before the new entry is
// appended, so duplicates cannot appear under concurrency.
func (r *MessageRepo) AddReaction(ctx context.Context, messageID, userID int64, emoji string, at time.Time) (models.Reaction, error) {
	reaction := models.Reaction{UserID: userID, Emoji: emoji, At: at.UTC()}
	entry, err := json.Marshal(models.ReactionList{reaction})
	if err != nil {
		return models.Reaction{}, err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE messages
        SET reactions = (
            SELECT COALESCE(jsonb_agg(elem), '[]'::jsonb)
            FROM jsonb_array_elements(reactions) AS elem
            WHERE (elem->>'user_id')::bigint <> $2
        ) || $3::jsonb
        WHERE id = $1 AND deleted = FALSE`,
		messageID, userID, entry)
	if err != nil {
		return models.Reaction{}, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return models.Reaction{}, err
	}
	if count == 0 {
		return models.Reaction{}, ErrMessageNotFound
	}
	return reaction, nil
}

// RemoveReaction strips the user's reaction entry. Absence is not an error;
// the bool reports whether anything was removed.
func (r *MessageRepo) RemoveReaction(ctx context.Context, messageID, userID int64) (bool, error) {
	guard, err := json.Marshal([]map[string]int64{{"user_id": userID}})
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE messages
        SET reactions = (
            SELECT COALESCE(jsonb_agg(elem), '[]'::jsonb)
            FROM jsonb_array_elements(reactions) AS elem
            WHERE (elem->>'user_id')::bigint <> $2
        )
        WHERE id = $1 AND reactions @> $3::jsonb`,
		messageID, userID, guard)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	return count > 0, err
}

// UnreadCount computes on demand how many messages in the chat the user has
// not read. A running counter would drift; this cannot.
func (r *MessageRepo) UnreadCount(ctx context.Context, chatID, userID int64) (int, error) {
	guard, err := json.Marshal([]map[string]int64{{"user_id": userID}})
	if err != nil {
		return 0, err
	}
	var count int
	err = r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages
        WHERE chat_id = $1 AND sender_id <> $2 AND deleted = FALSE AND NOT (read_by @> $3::jsonb)`,
		chatID, userID, guard)
	return count, err
}

// UnreadCounts computes unread totals for every chat the user belongs to.
func (r *MessageRepo) UnreadCounts(ctx context.Context, userID int64) (map[int64]int, error) {
	guard, err := json.Marshal([]map[string]int64{{"user_id": userID}})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryxContext(ctx, `SELECT m.chat_id, COUNT(*) FROM messages m
        JOIN chat_participants cp ON cp.chat_id = m.chat_id AND cp.user_id = $1
        WHERE m.sender_id <> $1 AND m.deleted = FALSE AND NOT (m.read_by @> $2::jsonb)
        GROUP BY m.chat_id`, userID, guard)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var chatID int64
		var count int
		if err := rows.Scan(&chatID, &count); err != nil {
			return nil, err
		}
		counts[chatID] = count
	}
	return counts, rows.Err()
}

func receiptArgs(userID int64, at time.Time) ([]byte, []byte, error) {
	entry, err := json.Marshal(models.ReceiptList{{UserID: userID, At: at.UTC()}})
	if err != nil {
		return nil, nil, err
	}
	guard, err := json.Marshal([]map[string]int64{{"user_id": userID}})
	if err != nil {
		return nil, nil, err
	}
	return entry, guard, nil
}
