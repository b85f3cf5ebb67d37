package client

import (
	"time"

	"github.com/msomdec/friendconnect/internal/domain"
	"github.com/msomdec/friendconnect/internal/service"
)

type userWire struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	Location  string    `json:"location"`
	Bio       string    `json:"bio"`
	Interests []string  `json:"interests"`
	Friends   []int64   `json:"friends"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u userWire) toDomain() *domain.User {
	return &domain.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		Location:  u.Location,
		Bio:       u.Bio,
		Interests: u.Interests,
		Friends:   u.Friends,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

func usersToDomain(in []userWire) []domain.User {
	out := make([]domain.User, len(in))
	for i, u := range in {
		out[i] = *u.toDomain()
	}
	return out
}

type friendRequestWire struct {
	ID         int64     `json:"id"`
	FromUserID int64     `json:"fromUserId"`
	ToUserID   int64     `json:"toUserId"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	FromUser   *userWire `json:"fromUser"`
}

func (r friendRequestWire) toDomain() *domain.FriendRequest {
	return &domain.FriendRequest{
		ID:         r.ID,
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		Status:     domain.FriendRequestStatus(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

type messageWire struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	SenderID       int64     `json:"senderId"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}

func (m messageWire) toDomain() domain.Message {
	return domain.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Text:           m.Text,
		Timestamp:      m.Timestamp,
	}
}

func messagesToDomain(in []messageWire) []domain.Message {
	out := make([]domain.Message, len(in))
	for i, m := range in {
		out[i] = m.toDomain()
	}
	return out
}

type conversationWire struct {
	ID           int64         `json:"id"`
	Participants []int64       `json:"participants"`
	Messages     []messageWire `json:"messages"`
	CreatedAt    time.Time     `json:"createdAt"`
	OtherUser    *userWire     `json:"otherUser"`
	LastMessage  *messageWire  `json:"lastMessage"`
}

func (c conversationWire) toDomain() *domain.Conversation {
	conv := &domain.Conversation{
		ID:        c.ID,
		Messages:  messagesToDomain(c.Messages),
		CreatedAt: c.CreatedAt,
	}
	if len(c.Participants) == 2 {
		conv.Participants = domain.ParticipantPair(c.Participants[0], c.Participants[1])
	}
	return conv
}

func (c conversationWire) toSummary() service.ConversationSummary {
	s := service.ConversationSummary{Conversation: *c.toDomain()}
	if c.OtherUser != nil {
		s.OtherUser = c.OtherUser.toDomain()
	}
	if c.LastMessage != nil {
		m := c.LastMessage.toDomain()
		s.LastMessage = &m
	}
	return s
}

func profileUpdateBody(upd service.ProfileUpdate) map[string]any {
	body := map[string]any{}
	if upd.Name != nil {
		body["name"] = *upd.Name
	}
	if upd.Bio != nil {
		body["bio"] = *upd.Bio
	}
	if upd.Interests != nil {
		body["interests"] = upd.Interests
	}
	if upd.Avatar != nil {
		body["avatar"] = *upd.Avatar
	}
	return body
}
