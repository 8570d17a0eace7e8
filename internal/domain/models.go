package domain

import (
	"fmt"
	"time"
)

// Role identifies which kind of account an actor is.
type Role string

const (
	RoleStudent Role = "student"
	RoleClub    Role = "club"
)

// ParseRole validates a role path segment.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleClub:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
}

func (r Role) String() string { return string(r) }

// Actor is the logged-in student or club driving a session.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

// Profile is an actor's editable attributes as returned by the API.
// Description is only meaningful for clubs.
type Profile struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Description string   `json:"description,omitempty"`
	Interests   []string `json:"interests"`
	Avatar      string   `json:"profile_picture,omitempty"`
}

// ProfileUpdate is the save payload. Nil fields are left unchanged by the server.
// Avatar carries a data URI when a new image was picked.
type ProfileUpdate struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Interests   []string `json:"interests,omitempty" validate:"omitempty,dive,min=1,max=50"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Avatar      *string  `json:"profile_picture,omitempty"`
}

// Club is a directory entry.
type Club struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Interests    []string `json:"interests"`
	MemberCount  int      `json:"members"`
	Avatar       string   `json:"profile_picture,omitempty"`
	ContactEmail string   `json:"email,omitempty"`
}

// Member is a student who saved a club.
type Member struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Interests []string  `json:"interests"`
	Avatar    string    `json:"profile_picture,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
}

// SaveResult is returned by save/unsave calls.
type SaveResult struct {
	Message string `json:"message"`
	Saved   bool   `json:"saved"`
	Removed bool   `json:"removed"`
}

// LatestMessage is the preview shown in a thread summary.
type LatestMessage struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	SentByMe  bool      `json:"sent_by_me"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// Thread summarizes the conversation with one counterpart.
type Thread struct {
	CounterpartID     int64         `json:"contact_id"`
	CounterpartType   Role          `json:"contact_type"`
	CounterpartName   string        `json:"contact_name"`
	CounterpartAvatar string        `json:"contact_profile_picture,omitempty"`
	LatestMessage     LatestMessage `json:"latest_message"`
	UnreadCount       int           `json:"unread_count"`
}

// Counterpart is the header of a conversation.
type Counterpart struct {
	ID     int64  `json:"id"`
	Type   Role   `json:"type"`
	Name   string `json:"name"`
	Avatar string `json:"profile_picture,omitempty"`
}

// Message is one entry of a conversation, seen from the requesting actor.
type Message struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	SentByMe   bool      `json:"sent_by_me"`
	SenderName string    `json:"sender_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Read       bool      `json:"read"`
}

// Conversation is the full ordered history with one counterpart.
type Conversation struct {
	Counterpart Counterpart `json:"other_user"`
	Messages    []Message   `json:"messages"`
}

// SendRequest is the body of a send call.
type SendRequest struct {
	Content       string `json:"content" validate:"required"`
	RecipientID   int64  `json:"recipient_id" validate:"required,gt=0"`
	RecipientType Role   `json:"recipient_type" validate:"required,oneof=student club"`
}

// SentMessage is the server's view of a freshly sent message.
type SentMessage struct {
	ID            int64     `json:"id"`
	Content       string    `json:"content"`
	SenderID      int64     `json:"sender_id"`
	SenderType    Role      `json:"sender_type"`
	SenderName    string    `json:"sender_name"`
	SenderAvatar  string    `json:"sender_profile_picture,omitempty"`
	RecipientID   int64     `json:"recipient_id"`
	RecipientType Role      `json:"recipient_type"`
	CreatedAt     time.Time `json:"created_at"`
	Read          bool      `json:"read"`
}

// Credentials is the body of a login call.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Registration is the body of a register call.
type Registration struct {
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=8"`
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description,omitempty" validate:"max=500"`
	Interests   []string `json:"interests" validate:"dive,min=1,max=50"`
}

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// SocialLink is a club's external profile link.
type SocialLink struct {
	ID        int64     `json:"id"`
	ClubID    int64     `json:"club_id"`
	Platform  string    `json:"platform"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SocialLinkInput creates or replaces a social link.
type SocialLinkInput struct {
	ClubID   int64  `json:"club_id" validate:"required,gt=0"`
	Platform string `json:"platform" validate:"required,oneof=facebook twitter instagram linkedin website"`
	URL      string `json:"url" validate:"required,url"`
}

// Ack is a plain confirmation body.
type Ack struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Interests is the selectable interest vocabulary shown in the dashboards.
var Interests = []string{
	"Technology",
	"Sports",
	"Arts",
	"Academic",
	"Cultural",
	"Music",
	"Science",
	"Gaming",
	"Social",
	"Political",
	"Environmental",
	"Business",
	"Health",
	"Language",
	"Religious",
}

// SocialPlatforms lists the accepted social link platforms.
var SocialPlatforms = []string{"facebook", "twitter", "instagram", "linkedin", "website"}
