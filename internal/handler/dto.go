package handler

import (
	"time"

	"github.com/msomdec/friendconnect/internal/domain"
	"github.com/msomdec/friendconnect/internal/service"
)

// UserDTO is the public JSON representation of a user. It has no password
// field.
type UserDTO struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Age       int      `json:"age"`
	Location  string   `json:"location"`
	Bio       string   `json:"bio"`
	Interests []string `json:"interests"`
	Friends   []int64  `json:"friends"`
	Avatar    string   `json:"avatar"`
	CreatedAt string   `json:"createdAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	friends := u.Friends
	if friends == nil {
		friends = []int64{}
	}
	return UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		Location:  u.Location,
		Bio:       u.Bio,
		Interests: interests,
		Friends:   friends,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func toUserDTOs(users []domain.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = toUserDTO(&users[i])
	}
	return dtos
}

// FriendRequestDTO is the JSON representation of a friend request.
type FriendRequestDTO struct {
	ID         int64    `json:"id"`
	FromUserID int64    `json:"fromUserId"`
	ToUserID   int64    `json:"toUserId"`
	Status     string   `json:"status"`
	CreatedAt  string   `json:"createdAt"`
	FromUser   *UserDTO `json:"fromUser,omitempty"`
}

func toFriendRequestDTO(r *domain.FriendRequest) FriendRequestDTO {
	return FriendRequestDTO{
		ID:         r.ID,
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
}

func toPendingRequestDTOs(pending []service.PendingRequest) []FriendRequestDTO {
	dtos := make([]FriendRequestDTO, len(pending))
	for i, p := range pending {
		dtos[i] = toFriendRequestDTO(&p.Request)
		from := toUserDTO(p.FromUser)
		dtos[i].FromUser = &from
	}
	return dtos
}

// MessageDTO is the JSON representation of a message.
type MessageDTO struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversationId"`
	SenderID       int64  `json:"senderId"`
	Text           string `json:"text"`
	Timestamp      string `json:"timestamp"`
}

func toMessageDTO(m *domain.Message) MessageDTO {
	return MessageDTO{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Text:           m.Text,
		Timestamp:      m.Timestamp.Format(time.RFC3339Nano),
	}
}

func toMessageDTOs(msgs []domain.Message) []MessageDTO {
	dtos := make([]MessageDTO, len(msgs))
	for i := range msgs {
		dtos[i] = toMessageDTO(&msgs[i])
	}
	return dtos
}

// ConversationDTO is the JSON representation of a conversation. OtherUser
// and LastMessage are only set in listings.
type ConversationDTO struct {
	ID           int64        `json:"id"`
	Participants []int64      `json:"participants"`
	Messages     []MessageDTO `json:"messages"`
	CreatedAt    string       `json:"createdAt"`
	OtherUser    *UserDTO     `json:"otherUser,omitempty"`
	LastMessage  *MessageDTO  `json:"lastMessage"`
}

func toConversationDTO(c *domain.Conversation) ConversationDTO {
	return ConversationDTO{
		ID:           c.ID,
		Participants: []int64{c.Participants[0], c.Participants[1]},
		Messages:     toMessageDTOs(c.Messages),
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
}

func toConversationSummaryDTOs(summaries []service.ConversationSummary) []ConversationDTO {
	dtos := make([]ConversationDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = toConversationDTO(&s.Conversation)
		other := toUserDTO(s.OtherUser)
		dtos[i].OtherUser = &other
		if s.LastMessage != nil {
			last := toMessageDTO(s.LastMessage)
			dtos[i].LastMessage = &last
		}
	}
	return dtos
}
