// Package session keeps the transient per-chat search state: the query, the
// cached result list, the page being shown and the bookkeeping needed to
// replace stale result messages and rate limit downloads. Nothing here is
// persisted; a restart drops every session.
package session

import (
	"sync"
	"time"

	"Smart-Music-Bot/pkg/music"
	"Smart-Music-Bot/pkg/paging"
)

// Session is a snapshot of one chat's search state.
type Session struct {
	Query  string
	Tracks []music.Track
	Page   int
}

type chatState struct {
	Session
	active       bool
	resultMsgID  int
	photoMsgID   int
	lastDownload time.Time
}

// Store holds sessions keyed by chat ID. It is safe for concurrent use.
type Store struct {
	pageSize int

	mu    sync.Mutex
	chats map[int64]*chatState
}

// NewStore returns an empty store paging results pageSize at a time.
func NewStore(pageSize int) *Store {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Store{pageSize: pageSize, chats: make(map[int64]*chatState)}
}

// PageSize reports the number of tracks per page.
func (s *Store) PageSize() int { return s.pageSize }

func (s *Store) state(chatID int64) *chatState {
	st, ok := s.chats[chatID]
	if !ok {
		st = &chatState{}
		s.chats[chatID] = st
	}
	return st
}

// Start replaces the chat's session with a new search positioned on the
// first page. Message IDs and the download timestamp survive.
func (s *Store) Start(chatID int64, query string, tracks []music.Track) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(chatID)
	st.Session = Session{Query: query, Tracks: tracks}
	st.active = true
	return st.Session
}

// Get returns the chat's session and whether one exists.
func (s *Store) Get(chatID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.chats[chatID]
	if !ok || !st.active {
		return Session{}, false
	}
	return st.Session, true
}

// Move shifts the page by delta, clamped to the cached results. The bool is
// false when the chat has no session.
func (s *Store) Move(chatID int64, delta int) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.chats[chatID]
	if !ok || !st.active {
		return Session{}, false
	}
	st.Page = paging.Clamp(st.Page+delta, len(st.Tracks), s.pageSize)
	return st.Session, true
}

// PageTracks returns the tracks of the session's current page together with
// the absolute index of the first one.
func (s *Store) PageTracks(sess Session) ([]music.Track, int) {
	start, end := paging.Bounds(sess.Page, len(sess.Tracks), s.pageSize)
	return sess.Tracks[start:end], start
}

// Messages returns the IDs of the last result message and cover photo posted
// to the chat. Zero means none.
func (s *Store) Messages(chatID int64) (resultID, photoID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.chats[chatID]; ok {
		return st.resultMsgID, st.photoMsgID
	}
	return 0, 0
}

// SetMessages records the message IDs of the results currently on screen.
func (s *Store) SetMessages(chatID int64, resultID, photoID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(chatID)
	st.resultMsgID, st.photoMsgID = resultID, photoID
}

// ForgetMessage clears msgID from the chat's bookkeeping once it has been
// deleted.
func (s *Store) ForgetMessage(chatID int64, msgID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.chats[chatID]
	if !ok {
		return
	}
	if st.resultMsgID == msgID {
		st.resultMsgID = 0
	}
	if st.photoMsgID == msgID {
		st.photoMsgID = 0
	}
}

// Reserve claims a download slot for the chat. When the previous download
// started less than cooldown ago it returns the remaining wait and false.
func (s *Store) Reserve(chatID int64, now time.Time, cooldown time.Duration) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(chatID)
	if !st.lastDownload.IsZero() {
		if elapsed := now.Sub(st.lastDownload); elapsed < cooldown {
			return cooldown - elapsed, false
		}
	}
	st.lastDownload = now
	return 0, true
}
