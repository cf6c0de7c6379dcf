package mock

import (
	"context"
	"sync"

	"github.com/bakkerme/rctbc-bins/internal/outputs/email"
)

type Sender struct {
	Err error

	mu       sync.Mutex
	messages []email.Message
}

func (s *Sender) Send(ctx context.Context, message email.Message) error {
	_ = ctx
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return nil
}

func (s *Sender) Messages() []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]email.Message(nil), s.messages...)
}
