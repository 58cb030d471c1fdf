// Package chat pairs users who ask for help with available users from
// other branches and tracks the resulting conversations.
package chat

import (
	"fmt"
	"sync"
	"time"

	"backoffice/internal/auth"
	"backoffice/internal/models"

	"github.com/google/uuid"
)

// SessionDirectory is the view of the session registry the engine needs
// for its pairing scan. Snapshot must return an immutable copy ordered
// oldest login first.
type SessionDirectory interface {
	Snapshot() []models.Session
	ByUsername(username string) (models.Session, bool)
}

// Match describes a successful pairing.
type Match struct {
	ChatID    string
	Requester string
	Partner   string
}

// Engine is the chat matching engine. One mutex guards every map and
// queue, so the whole pairing decision (status check through queue
// removal) is a single critical section.
//
// Pairing policy: deterministic oldest-request-first. The oldest pending
// request is paired with the oldest pending cross-branch request if one
// exists, otherwise with the available cross-branch user who logged in
// earliest. No global fairness beyond that is promised.
type Engine struct {
	mu       sync.Mutex
	sessions SessionDirectory

	chats        map[string]*models.ChatSession // active and ended, never deleted
	queue        []*models.ChatRequest          // pending only, arrival order
	pending      map[string]*models.ChatRequest // by request ID
	byUser       map[string]*models.ChatRequest // pending request per requester
	branchQueues map[string][]*models.ChatRequest
	userChat     map[string]string // username -> active chat ID
	messages     map[string][]models.ChatMessage

	now func() time.Time
}

func NewEngine(sessions SessionDirectory) *Engine {
	return &Engine{
		sessions:     sessions,
		chats:        make(map[string]*models.ChatSession),
		pending:      make(map[string]*models.ChatRequest),
		byUser:       make(map[string]*models.ChatRequest),
		branchQueues: make(map[string][]*models.ChatRequest),
		userChat:     make(map[string]string),
		messages:     make(map[string][]models.ChatMessage),
		now:          time.Now,
	}
}

// RequestChat queues a chat request for username and attempts a match
// right away. Exactly one of the returns is set: a Match if the caller
// was paired during the sweep, or the queued request.
func (e *Engine) RequestChat(username, branchID string) (*Match, *models.ChatRequest, error) {
	username = auth.Normalize(username)

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.statusLocked(username) {
	case models.StatusInChat:
		return nil, nil, models.ErrAlreadyInChat
	case models.StatusInQueue:
		return nil, nil, models.ErrAlreadyInQueue
	}

	req := &models.ChatRequest{
		ID:          "REQ_" + uuid.NewString(),
		Requester:   username,
		BranchID:    branchID,
		RequestedAt: e.now(),
		Status:      models.RequestPending,
	}
	e.enqueueLocked(req)

	matches := e.sweepLocked()
	for _, m := range matches {
		if m.Requester == username || m.Partner == username {
			return &m, nil, nil
		}
	}
	return nil, req, nil
}

// AcceptChatRequest pairs the accepting user with a specific pending
// request from another branch. Revalidates the request under the lock so
// a concurrently matched or cancelled request fails cleanly instead of
// double-matching.
func (e *Engine) AcceptChatRequest(acceptor, requestID string) (*Match, error) {
	acceptor = auth.Normalize(acceptor)

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.statusLocked(acceptor) {
	case models.StatusInChat:
		return nil, models.ErrAlreadyInChat
	case models.StatusInQueue:
		return nil, models.ErrAlreadyInQueue
	}

	sess, ok := e.sessions.ByUsername(acceptor)
	if !ok {
		return nil, models.ErrNotLoggedIn
	}

	req, ok := e.pending[requestID]
	if !ok || req.Status != models.RequestPending {
		return nil, models.ErrRequestUnavailable
	}
	if req.BranchID == sess.BranchID {
		return nil, fmt.Errorf("%w: request is from your own branch", models.ErrRequestUnavailable)
	}
	if req.Requester == acceptor {
		return nil, fmt.Errorf("%w: cannot accept your own request", models.ErrRequestUnavailable)
	}

	chat := e.pairLocked(req, acceptor)
	return &Match{ChatID: chat.ID, Requester: req.Requester, Partner: acceptor}, nil
}

// CancelChatRequest removes the caller's own pending request. Returns
// whether a request was actually cancelled.
func (e *Engine) CancelChatRequest(username string) bool {
	username = auth.Normalize(username)

	e.mu.Lock()
	defer e.mu.Unlock()

	req, ok := e.byUser[username]
	if !ok {
		return false
	}
	e.dequeueLocked(req)
	req.Status = models.RequestCancelled
	return true
}

// EndChat marks the chat ended, frees its participants and runs a
// matching sweep so queued requests can claim them immediately.
func (e *Engine) EndChat(chatID string) ([]Match, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	chat, ok := e.chats[chatID]
	if !ok || chat.Status != models.ChatActive {
		return nil, models.ErrChatNotActive
	}

	chat.Status = models.ChatEnded
	for _, p := range chat.Participants {
		delete(e.userChat, p)
	}
	e.appendSystemLocked(chatID, "Chat ended")

	return e.sweepLocked(), nil
}

// AddMessage appends a text message to an active chat.
func (e *Engine) AddMessage(chatID, sender, text string) error {
	sender = auth.Normalize(sender)

	e.mu.Lock()
	defer e.mu.Unlock()

	chat, ok := e.chats[chatID]
	if !ok || chat.Status != models.ChatActive {
		return fmt.Errorf("chat %s: %w", chatID, models.ErrChatNotActive)
	}
	if !chat.HasParticipant(sender) {
		return fmt.Errorf("user %s in chat %s: %w", sender, chatID, models.ErrNotParticipant)
	}

	e.messages[chatID] = append(e.messages[chatID], models.ChatMessage{
		ChatID:    chatID,
		Sender:    sender,
		Message:   text,
		Type:      models.MessageText,
		Timestamp: e.now().UnixMilli(),
	})
	return nil
}

// JoinChat adds an extra participant to an active chat, bypassing the
// pairing algorithm. The role check belongs to the caller; roleLabel is
// only used for the system message.
func (e *Engine) JoinChat(chatID, username, roleLabel string) error {
	username = auth.Normalize(username)

	e.mu.Lock()
	defer e.mu.Unlock()

	chat, ok := e.chats[chatID]
	if !ok || chat.Status != models.ChatActive {
		return fmt.Errorf("chat %s: %w", chatID, models.ErrChatNotActive)
	}
	if chat.HasParticipant(username) {
		return models.ErrAlreadyInChat
	}
	switch e.statusLocked(username) {
	case models.StatusInQueue:
		return models.ErrAlreadyInQueue
	case models.StatusInChat:
		return models.ErrAlreadyInChat
	}

	chat.Participants = append(chat.Participants, username)
	e.userChat[username] = chatID
	e.appendSystemLocked(chatID, fmt.Sprintf("%s %s joined the chat", roleLabel, username))
	return nil
}

// ReleaseUser clears any chat state a disconnected user left behind: a
// pending request is cancelled, and an active chat loses the participant
// (ending the chat when fewer than two remain).
func (e *Engine) ReleaseUser(username string) []Match {
	username = auth.Normalize(username)

	e.mu.Lock()
	defer e.mu.Unlock()

	if req, ok := e.byUser[username]; ok {
		e.dequeueLocked(req)
		req.Status = models.RequestCancelled
	}

	chatID, ok := e.userChat[username]
	if !ok {
		return nil
	}
	chat := e.chats[chatID]
	delete(e.userChat, username)

	remaining := chat.Participants[:0:0]
	for _, p := range chat.Participants {
		if p != username {
			remaining = append(remaining, p)
		}
	}
	chat.Participants = remaining
	e.appendSystemLocked(chatID, fmt.Sprintf("%s disconnected", username))

	if len(chat.Participants) < 2 && chat.Status == models.ChatActive {
		chat.Status = models.ChatEnded
		for _, p := range chat.Participants {
			delete(e.userChat, p)
		}
		e.appendSystemLocked(chatID, "Chat ended")
	}
	return e.sweepLocked()
}

// Status derives the user's chat status. Never stored: InChat wins over
// InQueue, and anything else is Available.
func (e *Engine) Status(username string) models.UserChatStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked(auth.Normalize(username))
}

// History returns a copy of the chat's message log, including for ended
// chats. Unknown chats yield an empty log.
func (e *Engine) History(chatID string) []models.ChatMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	msgs := e.messages[chatID]
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}

// UserChat returns the active chat the user participates in, if any.
func (e *Engine) UserChat(username string) (models.ChatSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	chatID, ok := e.userChat[auth.Normalize(username)]
	if !ok {
		return models.ChatSession{}, false
	}
	return e.copyChatLocked(chatID), true
}

// Chat returns any chat by ID, active or ended.
func (e *Engine) Chat(chatID string) (models.ChatSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.chats[chatID]; !ok {
		return models.ChatSession{}, false
	}
	return e.copyChatLocked(chatID), true
}

// WaitingForBranch returns the pending requests that originate from
// branchID, oldest first.
func (e *Engine) WaitingForBranch(branchID string) []models.ChatRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []models.ChatRequest
	for _, req := range e.branchQueues[branchID] {
		out = append(out, *req)
	}
	return out
}

// WaitingForOthers returns pending requests from every branch except
// branchID: the requests a user of that branch could accept.
func (e *Engine) WaitingForOthers(branchID string) []models.ChatRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []models.ChatRequest
	for _, req := range e.queue {
		if req.BranchID != branchID {
			out = append(out, *req)
		}
	}
	return out
}

// internal, all called with e.mu held

func (e *Engine) statusLocked(username string) models.UserChatStatus {
	if chatID, ok := e.userChat[username]; ok {
		if chat := e.chats[chatID]; chat != nil && chat.Status == models.ChatActive {
			return models.StatusInChat
		}
	}
	if _, ok := e.byUser[username]; ok {
		return models.StatusInQueue
	}
	return models.StatusAvailable
}

func (e *Engine) enqueueLocked(req *models.ChatRequest) {
	e.queue = append(e.queue, req)
	e.pending[req.ID] = req
	e.byUser[req.Requester] = req
	e.branchQueues[req.BranchID] = append(e.branchQueues[req.BranchID], req)
}

func (e *Engine) dequeueLocked(req *models.ChatRequest) {
	for i, r := range e.queue {
		if r.ID == req.ID {
			e.queue = append(e.queue[:i], e.queue[i+1:]...)
			break
		}
	}
	bq := e.branchQueues[req.BranchID]
	for i, r := range bq {
		if r.ID == req.ID {
			bq = append(bq[:i], bq[i+1:]...)
			break
		}
	}
	if len(bq) == 0 {
		delete(e.branchQueues, req.BranchID)
	} else {
		e.branchQueues[req.BranchID] = bq
	}
	delete(e.pending, req.ID)
	delete(e.byUser, req.Requester)
}

// sweepLocked pairs queued requests until no further match is possible.
// Each pass serves the oldest pending request first.
func (e *Engine) sweepLocked() []Match {
	var matches []Match
	for {
		m := e.matchOnceLocked()
		if m == nil {
			return matches
		}
		matches = append(matches, *m)
	}
}

func (e *Engine) matchOnceLocked() *Match {
	if len(e.queue) == 0 {
		return nil
	}
	req := e.queue[0]

	// Prefer the oldest cross-branch request: both sides stop waiting.
	for _, other := range e.queue[1:] {
		if other.BranchID != req.BranchID {
			e.dequeueLocked(other)
			chat := e.pairLocked(req, other.Requester)
			other.Status = models.RequestMatched
			return &Match{ChatID: chat.ID, Requester: req.Requester, Partner: other.Requester}
		}
	}

	// Otherwise the earliest-logged-in available user from another branch.
	for _, sess := range e.sessions.Snapshot() {
		if sess.BranchID == req.BranchID || sess.Username == req.Requester {
			continue
		}
		if e.statusLocked(sess.Username) != models.StatusAvailable {
			continue
		}
		chat := e.pairLocked(req, sess.Username)
		return &Match{ChatID: chat.ID, Requester: req.Requester, Partner: sess.Username}
	}
	return nil
}

// pairLocked commits a match: consumes the request, creates the chat,
// moves both users to InChat and seeds the message log.
func (e *Engine) pairLocked(req *models.ChatRequest, partner string) *models.ChatSession {
	e.dequeueLocked(req)
	req.Status = models.RequestMatched

	chat := &models.ChatSession{
		ID:           "CHAT_" + uuid.NewString(),
		Participants: []string{req.Requester, partner},
		StartedAt:    e.now(),
		Status:       models.ChatActive,
	}
	e.chats[chat.ID] = chat
	e.userChat[req.Requester] = chat.ID
	e.userChat[partner] = chat.ID
	e.messages[chat.ID] = nil
	e.appendSystemLocked(chat.ID, fmt.Sprintf("Chat started between %s and %s", req.Requester, partner))
	return chat
}

func (e *Engine) appendSystemLocked(chatID, text string) {
	e.messages[chatID] = append(e.messages[chatID], models.ChatMessage{
		ChatID:    chatID,
		Sender:    "SYSTEM",
		Message:   text,
		Type:      models.MessageSystem,
		Timestamp: e.now().UnixMilli(),
	})
}

func (e *Engine) copyChatLocked(chatID string) models.ChatSession {
	chat := e.chats[chatID]
	out := *chat
	out.Participants = append([]string(nil), chat.Participants...)
	return out
}
