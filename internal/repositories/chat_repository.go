package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

const chatColumns = `id, chat_type, name, direct_key, last_message_id, last_activity, active, created_at`

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateDirectChat(ctx context.Context, userID, otherID int64) (models.Chat, error)
	CreateGroupChat(ctx context.Context, ownerID int64, name string, memberIDs []int64) (models.Chat, error)
	GetChat(ctx context.Context, chatID int64) (models.Chat, error)
	ListChats(ctx context.Context, userID int64) ([]models.Chat, error)
	Participants(ctx context.Context, chatID int64) ([]models.Participant, error)
	IsParticipant(ctx context.Context, chatID, userID int64) (bool, error)
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
	AddParticipant(ctx context.Context, chatID, userID int64, isAdmin bool) error
	RemoveParticipant(ctx context.Context, chatID, userID int64) error
	ParticipantCount(ctx context.Context, chatID int64) (int, error)
	SetLastMessage(ctx context.Context, chatID, messageID int64) error
	Deactivate(ctx context.Context, chatID int64) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateDirectChat returns the direct chat for the pair, creating it if
// needed. The unique direct_key makes concurrent creation converge on a
// single row.
func (r *ChatRepo) CreateDirectChat(ctx context.Context, userID, otherID int64) (models.Chat, error) {
	if userID == otherID {
		return models.Chat{}, errors.New("cannot create chat with self")
	}
	key := models.DirectChatKey(userID, otherID)

	var chat models.Chat
	err := r.db.QueryRowxContext(ctx, `INSERT INTO chats (chat_type, direct_key) VALUES ('direct', $1)
        ON CONFLICT (direct_key) DO NOTHING
        RETURNING `+chatColumns, key).StructScan(&chat)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost the race or the chat already existed.
		err = r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE direct_key=$1`, key)
	}
	if err != nil {
		return models.Chat{}, err
	}

	for _, id := range []int64{userID, otherID} {
		if err := r.AddParticipant(ctx, chat.ID, id, false); err != nil {
			return models.Chat{}, err
		}
	}
	return chat, nil
}

// CreateGroupChat creates a group chat with the owner as admin.
func (r *ChatRepo) CreateGroupChat(ctx context.Context, ownerID int64, name string, memberIDs []int64) (models.Chat, error) {
	var chat models.Chat
	err := r.db.QueryRowxContext(ctx, `INSERT INTO chats (chat_type, name) VALUES ('group', $1)
        RETURNING `+chatColumns, name).StructScan(&chat)
	if err != nil {
		return models.Chat{}, err
	}

	if err := r.AddParticipant(ctx, chat.ID, ownerID, true); err != nil {
		return models.Chat{}, err
	}
	for _, id := range memberIDs {
		if id == ownerID {
			continue
		}
		if err := r.AddParticipant(ctx, chat.ID, id, false); err != nil {
			return models.Chat{}, err
		}
	}
	return chat, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int64) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// ListChats returns the user's active chats, most recently active first.
func (r *ChatRepo) ListChats(ctx context.Context, userID int64) ([]models.Chat, error) {
	query := `SELECT c.id, c.chat_type, c.name, c.direct_key, c.last_message_id, c.last_activity, c.active, c.created_at
        FROM chats c
        JOIN chat_participants cp ON cp.chat_id = c.id
        WHERE cp.user_id = $1 AND c.active = TRUE
        ORDER BY c.last_activity DESC`
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats, query, userID)
	return chats, err
}

// Participants returns the chat's membership rows.
func (r *ChatRepo) Participants(ctx context.Context, chatID int64) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.SelectContext(ctx, &participants,
		`SELECT chat_id, user_id, is_admin, joined_at FROM chat_participants WHERE chat_id=$1 ORDER BY joined_at`, chatID)
	return participants, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// IsAdmin checks whether a user is a chat admin.
func (r *ChatRepo) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	var admin bool
	err := r.db.GetContext(ctx, &admin,
		`SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2 AND is_admin=TRUE)`, chatID, userID)
	return admin, err
}

// AddParticipant adds a member, a no-op when already present.
func (r *ChatRepo) AddParticipant(ctx context.Context, chatID, userID int64, isAdmin bool) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO chat_participants (chat_id, user_id, is_admin) VALUES ($1, $2, $3)
        ON CONFLICT (chat_id, user_id) DO NOTHING`, chatID, userID, isAdmin)
	return err
}

// RemoveParticipant removes a member, a no-op when absent.
func (r *ChatRepo) RemoveParticipant(ctx context.Context, chatID, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chat_participants WHERE chat_id=$1 AND user_id=$2`, chatID, userID)
	return err
}

// ParticipantCount returns the number of members in the chat.
func (r *ChatRepo) ParticipantCount(ctx context.Context, chatID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM chat_participants WHERE chat_id=$1`, chatID)
	return count, err
}

// SetLastMessage advances the chat's last-message pointer and activity
// timestamp. Last writer wins under concurrent sends.
func (r *ChatRepo) SetLastMessage(ctx context.Context, chatID, messageID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chats SET last_message_id=$2, last_activity=NOW() WHERE id=$1`, chatID, messageID)
	return err
}

// Deactivate soft-deletes the chat.
func (r *ChatRepo) Deactivate(ctx context.Context, chatID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chats SET active=FALSE WHERE id=$1`, chatID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChatNotFound
	}
	return nil
}
