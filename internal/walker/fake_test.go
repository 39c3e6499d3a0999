package walker

import (
	"context"
	"errors"
	"fmt"
)

// fakePost is one post on the scripted feed.
type fakePost struct {
	text   string
	utime  string
	href   string
	hidden bool
}

func post(seq uint32) fakePost {
	return fakePost{
		text:  fmt.Sprintf("#%d post number %d", seq, seq),
		utime: fmt.Sprintf("%d", 1700000000+int64(seq)),
		href:  fmt.Sprintf("beaverconfessions/posts/%d?ref=embed_post", seq),
	}
}

// fakeSurface serves a scripted feed. passes[i] is the number of posts
// visible on the i-th PostActions call; the last value repeats.
type fakeSurface struct {
	posts   []fakePost
	passes  []int
	openErr error
	missing string

	sessions []*fakeSession
}

func (s *fakeSurface) Open(_ context.Context) (Session, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	sess := &fakeSession{surface: s, current: -1}
	s.sessions = append(s.sessions, sess)
	return sess, nil
}

type fakeSession struct {
	surface   *fakeSurface
	calls     int
	current   int
	embedOpen bool
	inFrame   bool
	closed    bool
	opened    []int
}

func (s *fakeSession) PostActions(_ context.Context) ([]Element, error) {
	passes := s.surface.passes
	n := len(s.surface.posts)
	if len(passes) > 0 {
		n = passes[min(s.calls, len(passes)-1)]
	}
	s.calls++

	actions := make([]Element, 0, n)
	for i := range n {
		idx := i
		actions = append(actions, &fakeElement{
			interactable: !s.surface.posts[idx].hidden,
			onClick: func() error {
				s.current = idx
				s.opened = append(s.opened, idx)
				return nil
			},
		})
	}
	return actions, nil
}

func (s *fakeSession) EmbedControl(_ context.Context) (Element, error) {
	if s.surface.missing == "embed" || s.current < 0 {
		return nil, fmt.Errorf("%w: embed control not found", ErrShapeMismatch)
	}
	return &fakeElement{interactable: true, onClick: func() error {
		s.embedOpen = true
		return nil
	}}, nil
}

func (s *fakeSession) EnterEmbed(_ context.Context) (Frame, error) {
	if !s.embedOpen {
		return nil, fmt.Errorf("%w: embedded frame not found", ErrShapeMismatch)
	}
	s.inFrame = true
	return &fakeFrame{session: s, post: s.surface.posts[s.current]}, nil
}

func (s *fakeSession) DismissControl(_ context.Context) (Element, error) {
	if s.inFrame {
		return nil, errors.New("dismiss control looked up inside the embedded frame")
	}
	return &fakeElement{interactable: true, onClick: func() error {
		s.current = -1
		s.embedOpen = false
		return nil
	}}, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeFrame struct {
	session *fakeSession
	post    fakePost
}

func (f *fakeFrame) PostBody(_ context.Context) (Element, error) {
	if f.session.surface.missing == "body" {
		return nil, fmt.Errorf("%w: post body not found", ErrShapeMismatch)
	}
	return &fakeElement{text: f.post.text}, nil
}

func (f *fakeFrame) Timestamp(_ context.Context) (Element, error) {
	attrs := map[string]string{}
	if f.post.utime != "" {
		attrs["data-utime"] = f.post.utime
	}
	return &fakeElement{attrs: attrs}, nil
}

func (f *fakeFrame) PermalinkAnchor(_ context.Context) (Element, error) {
	return &fakeElement{attrs: map[string]string{"href": f.post.href}}, nil
}

func (f *fakeFrame) Exit(_ context.Context) error {
	f.session.inFrame = false
	return nil
}

type fakeElement struct {
	interactable bool
	text         string
	attrs        map[string]string
	onClick      func() error
}

func (e *fakeElement) Interactable(_ context.Context) (bool, error) {
	return e.interactable, nil
}

func (e *fakeElement) Click(_ context.Context) error {
	if e.onClick == nil {
		return nil
	}
	return e.onClick()
}

func (e *fakeElement) Text(_ context.Context) (string, error) {
	return e.text, nil
}

func (e *fakeElement) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}
