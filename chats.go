package unireservas

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ChatsClient covers /api/chat.
type ChatsClient struct{ c *Client }

const chatPath = "/api/chat"

// Create opens a chat about a property with an initial message. The server
// returns the existing chat when the caller already has one for that
// property.
func (ch *ChatsClient) Create(ctx context.Context, propertyID, initialMessage string) (*Chat, error) {
	initialMessage = strings.TrimSpace(initialMessage)
	if propertyID == "" {
		return nil, invalid("property_id", "property is required")
	}
	if initialMessage == "" {
		return nil, invalid("initial_message", "message must not be empty")
	}
	return call[Chat](ctx, ch.c, request{
		op: "create chat", method: http.MethodPost, path: chatPath + "/create",
		body: ChatCreate{PropertyID: propertyID, InitialMessage: initialMessage},
	})
}

// Send posts a message. The returned message carries the server id and
// timestamp.
func (ch *ChatsClient) Send(ctx context.Context, chatID, content string) (*ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, invalid("content", "message must not be empty")
	}
	return call[ChatMessage](ctx, ch.c, request{
		op: "send message", method: http.MethodPost, path: chatPath + "/message",
		body: MessageCreate{ChatID: chatID, Content: content},
	})
}

// Mine lists the caller's chats.
func (ch *ChatsClient) Mine(ctx context.Context) (*ChatList, error) {
	return call[ChatList](ctx, ch.c, request{
		op: "list chats", method: http.MethodGet, path: chatPath + "/my",
	})
}

// Messages fetches one page of a chat's history. Pages count from 1, newest
// first; messages inside a page are in ascending time order.
func (ch *ChatsClient) Messages(ctx context.Context, chatID string, page, limit int) (*ChatMessagesPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = MessagesPageSize
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return call[ChatMessagesPage](ctx, ch.c, request{
		op: "load messages", method: http.MethodGet, path: chatPath + "/" + url.PathEscape(chatID) + "/messages", query: q,
	})
}

func (ch *ChatsClient) Get(ctx context.Context, chatID string) (*Chat, error) {
	return call[Chat](ctx, ch.c, request{
		op: "get chat", method: http.MethodGet, path: chatPath + "/" + url.PathEscape(chatID),
	})
}
