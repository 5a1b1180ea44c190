package models

import (
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
)

// SendMessageRequest запрос на отправку сообщения в переписку по бронированию
type SendMessageRequest struct {
	BookingID int64  `json:"bookingId"`
	SenderID  int64  `json:"senderId"`
	Content   string `json:"content"`
}

// MessageResponse сообщение переписки
type MessageResponse struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"bookingId"`
	SenderID  int64     `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessagesResponse переписка по бронированию
type MessagesResponse struct {
	BookingID int64             `json:"bookingId"`
	Messages  []MessageResponse `json:"messages"`
}

// UnreadMessageResponse последнее непрочитанное сообщение переписки
type UnreadMessageResponse struct {
	BookingID       int64     `json:"bookingId"`
	SenderID        int64     `json:"senderId"`
	SenderName      string    `json:"senderName"`
	LatestMessage   string    `json:"latestMessage"`
	LatestMessageAt time.Time `json:"latestMessageAt"`
}

// UnreadListResponse непрочитанные переписки, новые первыми
type UnreadListResponse struct {
	Items []UnreadMessageResponse `json:"items"`
	Total int                     `json:"total"`
}

// FromDomainMessage конвертирует domain сообщение в response
func FromDomainMessage(m *domain.BookingMessage) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		BookingID: m.BookingID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

// FromDomainMessages конвертирует переписку
func FromDomainMessages(bookingID int64, msgs []*domain.BookingMessage) *MessagesResponse {
	resp := &MessagesResponse{
		BookingID: bookingID,
		Messages:  make([]MessageResponse, 0, len(msgs)),
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, FromDomainMessage(m))
	}
	return resp
}

// FromDomainUnread конвертирует список непрочитанных
func FromDomainUnread(items []domain.UnreadBookingMessage) *UnreadListResponse {
	resp := &UnreadListResponse{
		Items: make([]UnreadMessageResponse, 0, len(items)),
		Total: len(items),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, UnreadMessageResponse{
			BookingID:       it.BookingID,
			SenderID:        it.SenderID,
			SenderName:      it.SenderName,
			LatestMessage:   it.LatestMessage,
			LatestMessageAt: it.LatestMessageAt,
		})
	}
	return resp
}
