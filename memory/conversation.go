package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one persisted message of the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn returns a turn authored by the user.
func UserTurn(content string) Turn { return Turn{Role: RoleUser, Content: content} }

// AssistantTurn returns a turn authored by the agent.
func AssistantTurn(content string) Turn { return Turn{Role: RoleAssistant, Content: content} }

// Log is the ordered conversation, oldest first.
type Log []Turn

// DefaultMaxHistory is the number of turns kept when no cap is configured.
const DefaultMaxHistory = 50

var (
	// ErrStorageRead wraps failures reading or decoding the backing file.
	ErrStorageRead = errors.New("memory: storage read")
	// ErrStorageWrite wraps failures encoding or writing the backing file.
	ErrStorageWrite = errors.New("memory: storage write")
)

// Append returns a new log with user and assistant appended in that order.
// The input log is never modified.
func Append(log Log, user, assistant Turn) Log {
	out := make(Log, 0, len(log)+2)
	out = append(out, log...)
	return append(out, user, assistant)
}

// EnforceCap keeps the trailing max turns when log is longer than max.
// max <= 0 disables the cap.
func EnforceCap(log Log, max int) Log {
	if max <= 0 || len(log) <= max {
		return log
	}
	out := make(Log, max)
	copy(out, log[len(log)-max:])
	return out
}

// Store owns the single file backing the conversation log.
type Store struct {
	path   string
	logger zerolog.Logger
}

// NewStore returns a store for path. A zero logger discards output.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{path: path, logger: logger.With().Str("component", "memory").Logger()}
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Load reads the log from disk. A missing file yields an empty log; a file
// that cannot be read or decoded is logged and also yields an empty log.
func (s *Store) Load() Log {
	log, err := s.read()
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("discarding unreadable conversation history")
		return Log{}
	}
	return log
}

func (s *Store) read() (Log, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Log{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	var log Log
	if err := json.Unmarshal(b, &log); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrStorageRead, s.path, err)
	}
	for i, t := range log {
		if !t.Role.Valid() {
			return nil, fmt.Errorf("%w: entry %d has unknown role %q", ErrStorageRead, i, t.Role)
		}
	}
	if log == nil {
		log = Log{}
	}
	return log, nil
}

// Save overwrites the backing file with the whole log. The file is replaced
// via rename so readers never observe a partial write.
func (s *Store) Save(log Log) error {
	if log == nil {
		log = Log{}
	}
	b, err := json.MarshalIndent(log, "", " ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrStorageWrite, err)
	}
	if err := renameio.WriteFile(s.path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	s.logger.Debug().Str("path", s.path).Int("turns", len(log)).Msg("conversation saved")
	return nil
}
