package unireservas

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	// ChatListTTL is how long a fetched chat list is served from cache.
	ChatListTTL = 30 * time.Second
	// MessagesTTL is how long a chat's first message page is served from
	// cache.
	MessagesTTL = 2 * time.Minute
	// MessagesPageSize is the page size of every history request. A shorter
	// page means there is nothing older.
	MessagesPageSize = 20
	// ScrollThreshold is the distance from the top of the thread, in pixels,
	// below which older messages are loaded.
	ScrollThreshold = 50
)

// ChatAPI is the part of the chat backend a ChatSession uses. *ChatsClient
// implements it.
type ChatAPI interface {
	Mine(ctx context.Context) (*ChatList, error)
	Messages(ctx context.Context, chatID string, page, limit int) (*ChatMessagesPage, error)
	Send(ctx context.Context, chatID, content string) (*ChatMessage, error)
}

const chatListKey = "mine"

// ChatSession is the state behind one chat screen. It holds:
//
//   - the chat list, cached for ChatListTTL
//   - the first message page of each chat, cached for MessagesTTL
//   - the open chat's visible thread, page cursor and has-more flag
//   - the message draft
//
// Older pages are prepended as the user scrolls up; a guard flag keeps at
// most one such load in flight. Results that arrive after Close, or after a
// different chat was opened, do not touch the visible thread.
type ChatSession struct {
	api    ChatAPI
	logger *slog.Logger
	now    Clock

	chats *Cache[string, []Chat]
	pages *Cache[string, []ChatMessage]

	mu          sync.Mutex
	prefetched  map[string]struct{}
	current     *Chat
	epoch       uint64
	messages    []ChatMessage
	page        int
	hasMore     bool
	loading     bool
	loadingMore bool
	sending     bool
	draft       string
	closed      bool
}

type ChatSessionOption func(*ChatSession)

func WithChatClock(now Clock) ChatSessionOption {
	return func(s *ChatSession) {
		if now != nil {
			s.now = now
		}
	}
}

func WithChatLogger(logger *slog.Logger) ChatSessionOption {
	return func(s *ChatSession) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewChatSession(api ChatAPI, opts ...ChatSessionOption) *ChatSession {
	s := &ChatSession{
		api:        api,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
		prefetched: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "chat_session")
	s.chats = NewCache[string, []Chat](ChatListTTL, s.now)
	s.pages = NewCache[string, []ChatMessage](MessagesTTL, s.now)
	return s
}

// ============================================================================
// Chat list
// ============================================================================

// Chats returns the caller's chats. A list fetched less than ChatListTTL ago
// is returned without a request unless force is set.
func (s *ChatSession) Chats(ctx context.Context, force bool) ([]Chat, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	if !force {
		if cached, ok := s.chats.Get(chatListKey); ok {
			return cloneSlice(cached), nil
		}
	}

	list, err := s.api.Mine(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	s.chats.Set(chatListKey, cloneSlice(list.Chats))
	return cloneSlice(list.Chats), nil
}

// CachedChats returns the stored chat list, fresh or not.
func (s *ChatSession) CachedChats() ([]Chat, bool) {
	chats, ok := s.chats.Peek(chatListKey)
	return cloneSlice(chats), ok
}

// ============================================================================
// Prefetch
// ============================================================================

// Prefetch warms the first message page of chatID, typically when the
// pointer hovers its list entry. It runs at most once per chat per session
// and never reports failure: the user did not ask for it.
func (s *ChatSession) Prefetch(ctx context.Context, chatID string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if _, done := s.prefetched[chatID]; done {
		s.mu.Unlock()
		return
	}
	s.prefetched[chatID] = struct{}{}
	s.mu.Unlock()

	if _, warm := s.pages.Get(chatID); warm {
		return
	}

	page, err := s.api.Messages(ctx, chatID, 1, MessagesPageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		delete(s.prefetched, chatID)
		s.logger.Debug("prefetch failed", "method", "Prefetch", "chat_id", chatID, "error", err)
		return
	}
	if s.closed {
		return
	}
	s.pages.Set(chatID, cloneSlice(page.Messages))
}

// ============================================================================
// Open chat
// ============================================================================

// Open shows chat. A first page cached less than MessagesTTL ago is shown
// without a request; otherwise the thread is cleared and page 1 is fetched.
func (s *ChatSession) Open(ctx context.Context, chat Chat) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	c := chat
	s.current = &c
	s.epoch++
	s.loadingMore = false
	if cached, ok := s.pages.Get(chat.ID); ok {
		s.messages = cloneSlice(cached)
		s.page = 1
		s.hasMore = len(cached) >= MessagesPageSize
		s.loading = false
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.loadFirstPage(ctx)
}

// Reload drops the cached first page of the open chat and fetches it again.
func (s *ChatSession) Reload(ctx context.Context) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return ErrNoChatOpen
	}
	s.pages.Invalidate(s.current.ID)
	s.epoch++
	s.loadingMore = false
	s.mu.Unlock()
	return s.loadFirstPage(ctx)
}

func (s *ChatSession) loadFirstPage(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	chatID := s.current.ID
	epoch := s.epoch
	s.messages = nil
	s.page = 1
	s.hasMore = true
	s.loading = true
	s.mu.Unlock()

	page, err := s.api.Messages(ctx, chatID, 1, MessagesPageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	current := s.epoch == epoch
	if current {
		s.loading = false
	}
	if err != nil {
		if current {
			// Nothing older can be paged in until page 1 has loaded.
			s.hasMore = false
		}
		return err
	}
	s.pages.Set(chatID, cloneSlice(page.Messages))
	if !current {
		return nil
	}
	s.messages = cloneSlice(page.Messages)
	s.page = 1
	s.hasMore = len(page.Messages) >= MessagesPageSize
	return nil
}

// ============================================================================
// Backward pagination
// ============================================================================

// OnScroll loads older messages when scrollTop is within ScrollThreshold of
// the top. It reports whether a request was issued.
func (s *ChatSession) OnScroll(ctx context.Context, scrollTop float64) (bool, error) {
	if scrollTop >= ScrollThreshold {
		return false, nil
	}
	return s.LoadMore(ctx)
}

// LoadMore fetches the page after the current cursor and prepends it. It
// does nothing when no chat is open, when there is nothing older or when a
// load is already running, and reports whether it issued a request.
func (s *ChatSession) LoadMore(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.closed || s.current == nil || !s.hasMore || s.loading || s.loadingMore {
		s.mu.Unlock()
		return false, nil
	}
	s.loadingMore = true
	chatID := s.current.ID
	epoch := s.epoch
	next := s.page + 1
	s.mu.Unlock()

	page, err := s.api.Messages(ctx, chatID, next, MessagesPageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.epoch != epoch {
		return true, nil
	}
	s.loadingMore = false
	if err != nil {
		return true, err
	}
	older := cloneSlice(page.Messages)
	s.messages = append(older, s.messages...)
	s.page = next
	s.hasMore = len(page.Messages) >= MessagesPageSize
	return true, nil
}

// ============================================================================
// Sending
// ============================================================================

func (s *ChatSession) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

func (s *ChatSession) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Send posts the draft to the open chat.
//
// The draft is cleared and the chat's list preview is updated before the
// request goes out. The message itself joins the thread only once the server
// returns it, with the server's id and timestamp. If the request fails the
// draft comes back and the thread is unchanged, but the list preview keeps
// the new text (see patchListPreviewWithoutRollback).
func (s *ChatSession) Send(ctx context.Context) (*ChatMessage, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.current == nil {
		s.mu.Unlock()
		return nil, ErrNoChatOpen
	}
	content := strings.TrimSpace(s.draft)
	if content == "" {
		s.mu.Unlock()
		return nil, invalid("content", "message must not be empty")
	}
	if s.sending {
		s.mu.Unlock()
		return nil, ErrSendInFlight
	}
	s.sending = true
	chatID := s.current.ID
	epoch := s.epoch
	draft := newPendingMutation("draft:"+chatID, s.draft)
	s.draft = ""
	s.mu.Unlock()

	s.patchListPreviewWithoutRollback(chatID, content, s.now().UTC().Format(time.RFC3339))

	msg, err := s.api.Send(ctx, chatID, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
	if err != nil {
		if prev, ok := draft.rollback(); ok && !s.closed && s.draft == "" {
			s.draft = prev
		}
		s.logger.Warn("send failed", "method", "Send", "chat_id", chatID, "mutation_id", draft.id, "mutation_key", draft.key, "error", err)
		return nil, err
	}
	draft.confirm()
	if s.closed {
		return msg, nil
	}

	s.pages.Invalidate(chatID)
	if s.epoch == epoch {
		s.messages = append(s.messages, *msg)
	}
	if msg.CreatedAt != "" {
		s.patchListPreviewWithoutRollback(chatID, msg.Content, msg.CreatedAt)
	}
	return msg, nil
}

// patchListPreviewWithoutRollback rewrites the cached list entry of chatID
// with a new last-message preview, keeping the entry's expiry. This patch is
// the one optimistic change that is never rolled back: a failed send leaves
// the preview showing the unsent text until the list is next fetched.
func (s *ChatSession) patchListPreviewWithoutRollback(chatID, content, at string) {
	s.chats.Update(chatListKey, func(chats []Chat) []Chat {
		out := cloneSlice(chats)
		for i := range out {
			if out[i].ID == chatID {
				out[i].LastMessage = content
				out[i].LastMessageAt = at
				out[i].UpdatedAt = at
			}
		}
		return out
	})
}

// ============================================================================
// Lifecycle and accessors
// ============================================================================

// Close detaches the session. Requests still in flight finish, but their
// results are dropped.
func (s *ChatSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *ChatSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Current returns the open chat.
func (s *ChatSession) Current() (Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Chat{}, false
	}
	return *s.current, true
}

// Messages returns the visible thread, oldest first.
func (s *ChatSession) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSlice(s.messages)
}

func (s *ChatSession) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *ChatSession) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

func (s *ChatSession) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *ChatSession) LoadingMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingMore
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append([]T(nil), in...)
}
