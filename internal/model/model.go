package model

type Todo struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type List struct {
	Name  string `json:"name"`
	Todos []Todo `json:"todos"`
}

type NoticeKind string

const (
	NoticeError   NoticeKind = "error"
	NoticeSuccess NoticeKind = "success"
)

// Notice is a one-shot message shown on the next rendered view.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Session is everything a single browser session owns.
type Session struct {
	Lists   []List   `json:"lists"`
	Notices []Notice `json:"notices,omitempty"`
}

// SetNotice stores msg in the slot for kind, replacing any earlier notice of that kind.
func (s *Session) SetNotice(kind NoticeKind, msg string) {
	for i := range s.Notices {
		if s.Notices[i].Kind == kind {
			s.Notices[i].Message = msg
			return
		}
	}
	s.Notices = append(s.Notices, Notice{Kind: kind, Message: msg})
}

func (s *Session) Error(msg string)   { s.SetNotice(NoticeError, msg) }
func (s *Session) Success(msg string) { s.SetNotice(NoticeSuccess, msg) }

// TakeNotices returns the pending notices and clears them.
func (s *Session) TakeNotices() []Notice {
	out := s.Notices
	s.Notices = nil
	return out
}

// Normalize replaces nil slices so JSON round-trips and callers see empty sequences.
func (s *Session) Normalize() {
	if s.Lists == nil {
		s.Lists = []List{}
	}
	for i := range s.Lists {
		if s.Lists[i].Todos == nil {
			s.Lists[i].Todos = []Todo{}
		}
	}
}
