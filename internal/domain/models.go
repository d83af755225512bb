// Package domain defines the persistence models for users, chats, messages,
// votes, financial account links, mirrored transactions, and documents.
// These types are mapped with GORM and form the core data layer of the
// finance-aware chat application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Chat visibility values.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// User is a registered account. Sessions are stateless JWTs, so only the
// credentials live here.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: unique login identifier.
//   - Password: bcrypt hash; never serialized.
type User struct {
	ID        string    `json:"id"    gorm:"type:char(36);primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Password  string    `json:"-"     gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Chat represents a conversation owned by a user. Unlike most aggregates the
// primary key is supplied by the caller: the UI allocates the chat ID before
// the first turn, and the first turn creates the row.
//
// Fields:
//   - ID: caller-supplied unique identifier (UUID shaped, but not enforced).
//   - UserID: identifier of the chat owner; immutable after creation.
//   - Title: derived once from the first user message.
//   - Visibility: "private" (default) or "public".
type Chat struct {
	ID         string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID     string         `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_chats"`
	Title      string         `json:"title"      gorm:"type:varchar(255);not null;default:'New chat'"`
	Visibility string         `json:"visibility" gorm:"type:varchar(16);not null;default:'private';check:visibility IN ('private','public')"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// Message represents a single utterance within a chat. Messages are
// append-only: rows are never updated, only superseded by newer rows.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ChatID: foreign key to the owning chat (indexed with CreatedAt).
//   - Role: "user", "assistant", or "system".
//   - Content: full text content of the message.
//   - Chat: FK association, ensures cascade delete/update where the
//     database enforces it; deletion also removes rows explicitly.
type Message struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	ChatID    string         `json:"chat_id"    gorm:"type:char(36);not null;index:idx_chat_msgs,priority:1"`
	Role      string         `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('user','assistant','system')"`
	Content   string         `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_chat_msgs,priority:2"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	Chat Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Vote represents a user's up/down rating on an assistant message. A user can
// cast at most one vote per message; re-voting updates the existing row.
type Vote struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	ChatID    string    `json:"chat_id"    gorm:"type:char(36);not null;index"`
	MessageID string    `json:"message_id" gorm:"type:char(36);not null;uniqueIndex:ux_vote_message_user"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_vote_message_user"`
	IsUpvoted bool      `json:"is_upvoted" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Message Message `json:"-" gorm:"foreignKey:MessageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Vote.
func (Vote) TableName() string { return "votes" }

// FinancialLink holds the durable aggregator credentials for one user. The
// current design keeps exactly one link per user: relinking overwrites the
// previous institution. The access token authorizes transaction reads and
// must never leave the repo/aggregator boundary; it is excluded from JSON.
type FinancialLink struct {
	UserID            string    `json:"user_id"            gorm:"type:varchar(64);primaryKey"`
	AccessToken       string    `json:"-"                  gorm:"type:varchar(255);not null"`
	ItemID            string    `json:"item_id"            gorm:"type:varchar(255);not null;index"`
	TransactionsReady bool      `json:"transactions_ready" gorm:"not null;default:false"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName returns the database table name for FinancialLink.
func (FinancialLink) TableName() string { return "financial_links" }

// Transaction mirrors one aggregator transaction for a user. Rows are keyed
// by the aggregator's transaction ID so re-ingesting an overlapping window is
// a no-op for rows already present.
//
// Date stays a string in the aggregator's YYYY-MM-DD form; it sorts
// correctly lexicographically and round-trips without timezone surprises.
type Transaction struct {
	TransactionID string    `json:"transaction_id" gorm:"type:varchar(255);primaryKey"`
	UserID        string    `json:"user_id"        gorm:"type:varchar(64);not null;index:idx_user_tx_date,priority:1"`
	Name          string    `json:"name"           gorm:"type:varchar(255);not null"`
	Amount        float64   `json:"amount"         gorm:"not null"`
	Date          string    `json:"date"           gorm:"type:varchar(10);not null;index:idx_user_tx_date,priority:2"`
	Category      string    `json:"category"       gorm:"type:varchar(255)"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the database table name for Transaction.
func (Transaction) TableName() string { return "transactions" }

// Document is an artifact produced by the createDocument/updateDocument
// tools during a turn. Documents belong to the user who was chatting when
// the model created them.
type Document struct {
	ID        string         `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id" gorm:"type:varchar(64);not null;index"`
	Title     string         `json:"title"   gorm:"type:varchar(255);not null"`
	Content   string         `json:"content" gorm:"type:text"`
	Kind      string         `json:"kind"    gorm:"type:varchar(16);not null;default:'text'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }

// Suggestion is a single improvement proposal produced by the
// requestSuggestions tool against a document.
type Suggestion struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	DocumentID    string    `json:"document_id"    gorm:"type:char(36);not null;index"`
	OriginalText  string    `json:"original_text"  gorm:"type:text"`
	SuggestedText string    `json:"suggested_text" gorm:"type:text"`
	Description   string    `json:"description"    gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`

	Document Document `json:"-" gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Suggestion.
func (Suggestion) TableName() string { return "suggestions" }
