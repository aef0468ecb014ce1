package unireservas

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"
)

// ============================================================================
// Fake chat backend
// ============================================================================

type pageCall struct {
	chatID string
	page   int
}

type fakeChatAPI struct {
	mu        sync.Mutex
	chats     []Chat
	history   map[string][]ChatMessage
	mineCalls int
	pageCalls []pageCall
	sent      []MessageCreate
	sendErr   error
	pageErr   error

	// When blockChat is set, page loads for that chat (from page blockFrom
	// on) announce themselves on entered and wait for gate.
	blockChat string
	blockFrom int
	entered   chan pageCall
	gate      chan struct{}
}

func newFakeChatAPI() *fakeChatAPI {
	return &fakeChatAPI{
		chats: []Chat{
			{ID: "A", PropertyTitle: "Kitnet", LastMessage: "old", LastMessageAt: "2025-03-10T10:00:00Z"},
			{ID: "B", PropertyTitle: "Quarto", LastMessage: "hi", LastMessageAt: "2025-03-10T11:00:00Z"},
		},
		history: map[string][]ChatMessage{},
	}
}

func makeHistory(chatID string, n int) []ChatMessage {
	out := make([]ChatMessage, n)
	for i := range out {
		out[i] = ChatMessage{ID: fmt.Sprintf("m%d", i+1), ChatID: chatID, Content: fmt.Sprintf("message %d", i+1)}
	}
	return out
}

func (f *fakeChatAPI) block(chatID string, fromPage int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockChat = chatID
	f.blockFrom = fromPage
	f.entered = make(chan pageCall, 1)
	f.gate = make(chan struct{})
}

func (f *fakeChatAPI) Mine(ctx context.Context) (*ChatList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mineCalls++
	return &ChatList{Chats: append([]Chat(nil), f.chats...), Total: len(f.chats)}, nil
}

func (f *fakeChatAPI) Messages(ctx context.Context, chatID string, page, limit int) (*ChatMessagesPage, error) {
	f.mu.Lock()
	f.pageCalls = append(f.pageCalls, pageCall{chatID, page})
	blocked := f.blockChat == chatID && page >= f.blockFrom
	entered, gate := f.entered, f.gate
	err := f.pageErr
	h := f.history[chatID]
	f.mu.Unlock()

	if blocked {
		entered <- pageCall{chatID, page}
		<-gate
	}
	if err != nil {
		return nil, err
	}

	end := len(h) - (page-1)*limit
	if end <= 0 {
		return &ChatMessagesPage{ChatID: chatID, Messages: []ChatMessage{}, Total: len(h)}, nil
	}
	start := max(end-limit, 0)
	return &ChatMessagesPage{ChatID: chatID, Messages: append([]ChatMessage(nil), h[start:end]...), Total: len(h)}, nil
}

func (f *fakeChatAPI) Send(ctx context.Context, chatID, content string) (*ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, MessageCreate{ChatID: chatID, Content: content})
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	msg := ChatMessage{
		ID:        fmt.Sprintf("srv-%d", len(f.sent)),
		ChatID:    chatID,
		Content:   content,
		CreatedAt: "2025-03-10T12:00:05Z",
	}
	f.history[chatID] = append(f.history[chatID], msg)
	return &msg, nil
}

func (f *fakeChatAPI) pageCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pageCalls)
}

func (f *fakeChatAPI) mineCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mineCalls
}

func messageIDs(ms []ChatMessage) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func idRange(from, to int) []string {
	var out []string
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf("m%d", i))
	}
	return out
}

// ============================================================================
// Chat list cache
// ============================================================================

func TestChatSessionListCache(t *testing.T) {
	ctx := context.Background()
	api := newFakeChatAPI()
	clock := newFakeClock()
	s := NewChatSession(api, WithChatClock(clock.Now))

	if _, err := s.Chats(ctx, false); err != nil {
		t.Fatalf("Chats: %v", err)
	}
	if api.mineCallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", api.mineCallCount())
	}

	clock.Advance(10 * time.Second)
	chats, err := s.Chats(ctx, false)
	if err != nil {
		t.Fatalf("Chats: %v", err)
	}
	if api.mineCallCount() != 1 {
		t.Fatalf("fresh list should be served from cache, got %d calls", api.mineCallCount())
	}
	if len(chats) != 2 {
		t.Fatalf("expected 2 chats, got %d", len(chats))
	}

	clock.Advance(21 * time.Second)
	if _, err := s.Chats(ctx, false); err != nil {
		t.Fatalf("Chats: %v", err)
	}
	if api.mineCallCount() != 2 {
		t.Fatalf("stale list should be refetched, got %d calls", api.mineCallCount())
	}

	if _, err := s.Chats(ctx, true); err != nil {
		t.Fatalf("Chats: %v", err)
	}
	if api.mineCallCount() != 3 {
		t.Fatalf("forced load should always fetch, got %d calls", api.mineCallCount())
	}
}

func TestChatSessionServesEmptyCachedList(t *testing.T) {
	ctx := context.Background()
	api := newFakeChatAPI()
	api.chats = nil
	s := NewChatSession(api, WithChatClock(newFakeClock().Now))

	for i := 0; i < 2; i++ {
		if _, err := s.Chats(ctx, false); err != nil {
			t.Fatalf("Chats: %v", err)
		}
	}
	if api.mineCallCount() != 1 {
		t.Fatalf("an empty fresh list is still a cache hit, got %d calls", api.mineCallCount())
	}
}

// ============================================================================
// Message cache and prefetch
// ============================================================================

func TestChatSessionMessageCache(t *testing.T) {
	ctx := context.Background()
	api := newFakeChatAPI()
	api.history["A"] = makeHistory("A", 5)
	clock := newFakeClock()
	s := NewChatSession(api, WithChatClock(clock.Now))

	s.Prefetch(ctx, "A")
	if api.pageCallCount() != 1 {
		t.Fatalf("expected prefetch call, got %d", api.pageCallCount())
	}

	clock.Advance(60 * time.Second)
	if err := s.Open(ctx, Chat{ID: "A"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if api.pageCallCount() != 1 {
		t.Fatalf("open within 2 min should hit the cache, got %d calls", api.pageCallCount())
	}
	if got := messageIDs(s.Messages()); !reflect.DeepEqual(got, idRange(1, 5)) {
		t.Fatalf("unexpected messages %v", got)
	}
	if s.HasMore() {
		t.Fatal("a short cached page means there is nothing older")
	}

	clock.Advance(61 * time.Second)
	if err := s.Open(ctx, Chat{ID: "A"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if api.pageCallCount() != 2 {
		t.Fatalf("open after 2 min should refetch, got %d calls", api.pageCallCount())
	}
}

func TestChatSessionPrefetch(t *testing.T) {
	ctx := context.Background()

	t.Run("once per chat", func(t *testing.T) {
		api := newFakeChatAPI()
		clock := newFakeClock()
		s := NewChatSession(api, WithChatClock(clock.Now))
		s.Prefetch(ctx, "A")
		clock.Advance(5 * time.Minute)
		s.Prefetch(ctx, "A")
		if api.pageCallCount() != 1 {
			t.Fatalf("expected 1 call, got %d", api.pageCallCount())
		}
	})

	t.Run("failure is silent and retried", func(t *testing.T) {
		api := newFakeChatAPI()
		api.pageErr = &NetworkError{Op: "load messages", Err: errors.New("offline")}
		s := NewChatSession(api)
		s.Prefetch(ctx, "A")
		api.mu.Lock()
		api.pageErr = nil
		api.mu.Unlock()
		s.Prefetch(ctx, "A")
		if api.pageCallCount() != 2 {
			t.Fatalf("failed prefetch should not be remembered, got %d calls", api.pageCallCount())
		}
	})
}

// ============================================================================
// Backward pagination
// ============================================================================

func TestChatSessionBackwardPagination(t *testing.T) {
	ctx := context.Background()
	api := newFakeChatAPI()
	api.history["A"] = makeHistory("A", 45)
	s := NewChatSession(api)

	if err := s.Open(ctx, Chat{ID: "A"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := messageIDs(s.Messages()); !reflect.DeepEqual(got, idRange(26, 45)) {
		t.Fatalf("page 1: got %v", got)
	}
	if !s.HasMore() || s.Page() != 1 {
		t.Fatalf("expected page 1 with more, got page %d hasMore %v", s.Page(), s.HasMore())
	}

	if issued, _ := s.OnScroll(ctx, 120); issued {
		t.Fatal("scrolling far from the top must not load")
	}

	if issued, err := s.OnScroll(ctx, 10); err != nil || !issued {
		t.Fatalf("OnScroll near top: issued=%v err=%v", issued, err)
	}
	if got := messageIDs(s.Messages()); !reflect.DeepEqual(got, idRange(6, 45)) {
		t.Fatalf("after page 2: got %v", got)
	}
	if !s.HasMore() || s.Page() != 2 {
		t.Fatalf("expected page 2 with more, got page %d hasMore %v", s.Page(), s.HasMore())
	}

	if _, err := s.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if got := messageIDs(s.Messages()); !reflect.DeepEqual(got, idRange(1, 45)) {
		t.Fatalf("after page 3: got %v", got)
	}
	if s.HasMore() || s.Page() != 3 {
		t.Fatalf("short page should end pagination, got page %d hasMore %v", s.Page(), s.HasMore())
	}

	calls := api.pageCallCount()
	if issued, _ := s.LoadMore(ctx); issued {
		t.Fatal("LoadMore must not fetch once hasMore is false")
	}
	if api.pageCallCount() != calls {
		t.Fatal("unexpected request after the last page")
	}
}

func TestChatSessionFailedFirstPageBlocksLoadMore(t *testing.T) {
	ctx := context.Background()
	api := newFakeChatAPI()
	api.history["A"] = makeHistory("A", 45)
	api.pageErr = &NetworkError{Op: "load messages", Err: errors.New("offline")}
	s := NewChatSession(api)

	if err := s.Open(ctx, Chat{ID: "A"}); err == nil {
		t.Fatal("Open should report the failed page load")
	}
	if s.HasMore() || s.Loading() {
		t.Fatalf("failed open left hasMore=%v loading=%v", s.HasMore(), s.Loading())
	}

	api.mu.Lock()
	api.pageErr = nil
	api.mu.Unlock()

	calls := api.pageCallCount()
	if issued, err := s.OnScroll(ctx, 0); issued || err != nil {
		t.Fatalf("scrolling must not page past a missing first page: issued=%v err=%v", issued, err)
	}
	if api.pageCallCount() != calls || s.Page() != 1 {
		t.Fatalf("unexpected request or cursor move: calls=%d page=%d", api.pageCallCount()-calls, s.Page())
	}

	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := messageIDs(s.Messages()); !reflect.DeepEqual(got, idRange(26, 45)) || !s.HasMore() {
		t.Fatalf("reload should restore page 1, got %v hasMore=%v", got, s.HasMore())
	}
}

func TestChatSessionExactlyFullPage(t *testing.T) {
	ctx := context.Background()
	api := newFakeChatAPI()
	api.history["A"] = makeHistory("A", MessagesPageSize)
	s := NewChatSession(api)

	if err := s.Open(ctx, Chat{ID: "A"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !s.HasMore() {
		t.Fatal("a full page may have more behind it")
	}
	if _, err := s.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if s.HasMore() {
		t.Fatal("an empty older page ends pagination")
	}
	if len(s.Messages()) != MessagesPageSize {
		t.Fatalf("expected %d messages, got %d", MessagesPageSize, len(s.Messages()))
	}
}

func TestChatSessionLoadMoreGuard(t *testing.T) {
	ctx := context.Background()
	api := newFakeChatAPI()
	api.history["A"] = makeHistory("A", 60)
	s := NewChatSession(api)
	if err := s.Open(ctx, Chat{ID: "A"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	api.block("A", 2)

	done := make(chan error, 1)
	go func() {
		_, err := s.LoadMore(ctx)
		done <- err
	}()
	<-api.entered

	if !s.LoadingMore() {
		t.Fatal("expected loadingMore while the page is in flight")
	}
	if issued, _ := s.OnScroll(ctx, 0); issued {
		t.Fatal("second load must be refused while one is running")
	}

	close(api.gate)
	if err := <-done; err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if api.pageCallCount() != 2 {
		t.Fatalf("expected exactly 2 page requests, got %d", api.pageCallCount())
	}
	if s.LoadingMore() || s.Page() != 2 {
		t.Fatalf("expected settled page 2, got page %d loading %v", s.Page(), s.LoadingMore())
	}
}

// ============================================================================
// Sending
// ============================================================================

func TestChatSessionSend(t *testing.T) {
	ctx := context.Background()
	api := newFakeChatAPI()
	api.history["A"] = makeHistory("A", 3)
	s := NewChatSession(api, WithChatClock(newFakeClock().Now))

	if _, err := s.Chats(ctx, false); err != nil {
		t.Fatalf("Chats: %v", err)
	}
	if err := s.Open(ctx, Chat{ID: "A"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	calls := api.pageCallCount()

	s.SetDraft("  olá!  ")
	msg, err := s.Send(ctx)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.ID != "srv-1" || api.sent[0].Content != "olá!" {
		t.Fatalf("unexpected send %+v / %+v", msg, api.sent)
	}
	if s.Draft() != "" {
		t.Fatalf("draft should be cleared, got %q", s.Draft())
	}

	got := messageIDs(s.Messages())
	if want := []string{"m1", "m2", "m3", "srv-1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected the server message appended once, got %v", got)
	}

	chats, _ := s.CachedChats()
	if chats[0].LastMessage != "olá!" || chats[0].LastMessageAt != "2025-03-10T12:00:05Z" {
		t.Fatalf("list preview not updated: %+v", chats[0])
	}

	// page-1 cache was invalidated, so reopening goes to the server
	if err := s.Open(ctx, Chat{ID: "A"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if api.pageCallCount() != calls+1 {
		t.Fatalf("expected a refetch after send, got %d calls", api.pageCallCount()-calls)
	}
}

func TestChatSessionSendFailure(t *testing.T) {
	ctx := context.Background()
	api := newFakeChatAPI()
	api.history["A"] = makeHistory("A", 2)
	api.sendErr = &APIError{StatusCode: 403, Message: "Você não tem acesso a este chat"}
	s := NewChatSession(api)

	if _, err := s.Chats(ctx, false); err != nil {
		t.Fatalf("Chats: %v", err)
	}
	if err := s.Open(ctx, Chat{ID: "A"}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	s.SetDraft("posso visitar?")
	_, err := s.Send(ctx)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if s.Draft() != "posso visitar?" {
		t.Fatalf("draft should be restored, got %q", s.Draft())
	}
	if got := messageIDs(s.Messages()); !reflect.DeepEqual(got, []string{"m1", "m2"}) {
		t.Fatalf("thread should be untouched, got %v", got)
	}

	// The list preview is the one change that stays.
	chats, _ := s.CachedChats()
	if chats[0].LastMessage != "posso visitar?" {
		t.Fatalf("list preview should keep the unsent text, got %q", chats[0].LastMessage)
	}
}

func TestChatSessionSendRejectsLocally(t *testing.T) {
	ctx := context.Background()
	api := newFakeChatAPI()
	s := NewChatSession(api)

	s.SetDraft("hello")
	if _, err := s.Send(ctx); !errors.Is(err, ErrNoChatOpen) {
		t.Fatalf("expected ErrNoChatOpen, got %v", err)
	}

	if err := s.Open(ctx, Chat{ID: "A"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.SetDraft("   ")
	_, err := s.Send(ctx)
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(api.sent) != 0 {
		t.Fatalf("nothing should be sent, got %v", api.sent)
	}
}

// ============================================================================
// Lifecycle
// ============================================================================

func TestChatSessionDiscardsAfterClose(t *testing.T) {
	ctx := context.Background()
	api := newFakeChatAPI()
	api.history["A"] = makeHistory("A", 3)
	api.block("A", 1)
	s := NewChatSession(api)

	done := make(chan error, 1)
	go func() { done <- s.Open(ctx, Chat{ID: "A"}) }()
	<-api.entered
	s.Close()
	close(api.gate)

	if err := <-done; !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if len(s.Messages()) != 0 {
		t.Fatal("result arriving after close must be dropped")
	}
	if _, ok := s.pages.Peek("A"); ok {
		t.Fatal("result arriving after close must not be cached")
	}
}

func TestChatSessionDiscardsStaleChat(t *testing.T) {
	ctx := context.Background()
	api := newFakeChatAPI()
	api.history["A"] = makeHistory("A", 3)
	api.history["B"] = makeHistory("B", 2)
	api.block("A", 1)
	s := NewChatSession(api)

	done := make(chan error, 1)
	go func() { done <- s.Open(ctx, Chat{ID: "A"}) }()
	<-api.entered

	api.mu.Lock()
	api.blockChat = ""
	api.mu.Unlock()
	if err := s.Open(ctx, Chat{ID: "B"}); err != nil {
		t.Fatalf("Open B: %v", err)
	}

	close(api.gate)
	if err := <-done; err != nil {
		t.Fatalf("Open A: %v", err)
	}

	if cur, _ := s.Current(); cur.ID != "B" {
		t.Fatalf("expected B to stay open, got %q", cur.ID)
	}
	for _, m := range s.Messages() {
		if m.ChatID != "B" {
			t.Fatalf("stale message from %s leaked into the thread", m.ChatID)
		}
	}
	if _, ok := s.pages.Peek("A"); !ok {
		t.Fatal("the late page should still be cached for A")
	}
}
