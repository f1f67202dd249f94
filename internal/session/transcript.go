package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxTranscriptMessages = 250

// Message is one line of the chat transcript shown to the user.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"` // "user", "bot" or "system"
	Text      string    `json:"text"`
	Urgency   string    `json:"urgency,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript stores the rendered chat messages of a session, oldest first.
type Transcript interface {
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	List(ctx context.Context, sessionID string) ([]Message, error)
	Clear(ctx context.Context, sessionID string) error
}

func fillMessage(msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return msg
}

func (m *MemoryStore) Append(_ context.Context, sessionID string, msgs ...Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		m.transcripts[sessionID] = append(m.transcripts[sessionID], fillMessage(msg))
	}
	if n := len(m.transcripts[sessionID]); n > maxTranscriptMessages {
		m.transcripts[sessionID] = append([]Message(nil), m.transcripts[sessionID][n-maxTranscriptMessages:]...)
	}
	return nil
}

func (m *MemoryStore) List(_ context.Context, sessionID string) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message{}, m.transcripts[sessionID]...), nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.transcripts, sessionID)
	m.mu.Unlock()
	return nil
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "session.transcript.append")
	defer span.End()

	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(fillMessage(msg))
		if err != nil {
			return fmt.Errorf("session: marshal transcript message: %w", err)
		}
		values = append(values, data)
	}

	key := transcriptKey(sessionID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, s.ttl)
	pipe.LTrim(ctx, key, -maxTranscriptMessages, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: append transcript: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, sessionID string) ([]Message, error) {
	ctx, span := s.tracer.Start(ctx, "session.transcript.list")
	defer span.End()

	raw, err := s.redis.LRange(ctx, transcriptKey(sessionID), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: list transcript: %w", err)
	}

	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, transcriptKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("session: clear transcript: %w", err)
	}
	return nil
}

func transcriptKey(id string) string {
	return fmt.Sprintf("transcript:%s", id)
}
