package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

// SessionLog is a markdown journal of one server session: received events,
// generated narratives and notable server actions.
type SessionLog struct {
	id   string
	path string
	now  func() time.Time

	mu sync.Mutex
}

// NewSessionLog creates events_<session id>.md inside dir and writes its
// header.
func NewSessionLog(dir string) (*SessionLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session log dir: %w", err)
	}

	l := &SessionLog{
		id:  uuid.NewString(),
		now: time.Now,
	}
	l.path = filepath.Join(dir, "events_"+l.id+".md")

	header := fmt.Sprintf("# Brogue DM Session %s\n\n", l.now().Format("2006-01-02 15:04:05"))
	if err := os.WriteFile(l.path, []byte(header), 0o644); err != nil {
		return nil, fmt.Errorf("create session log: %w", err)
	}
	return l, nil
}

// ID returns the session id.
func (l *SessionLog) ID() string { return l.id }

// Path returns the markdown file path.
func (l *SessionLog) Path() string { return l.path }

// Event logs an inbound game event under a heading that describes it.
func (l *SessionLog) Event(ev models.Event) error {
	var heading string
	switch ev.Type {
	case models.EventMonsterEncountered:
		heading = fmt.Sprintf("### 👹 Encountered %s in %s",
			models.StringOr(ev.Data, "monsterName", "unknown"),
			models.StringOr(ev.Data, "locationDesc", "the dungeon"))
	case models.EventMonsterKilled:
		heading = fmt.Sprintf("### 👹 Defeated %s!", models.StringOr(ev.Data, "monsterName", "unknown"))
	case models.EventItemDiscovered:
		heading = fmt.Sprintf("### 💎 Found %s", models.StringOr(ev.Data, "itemName", "unknown"))
	case models.EventPlayerDied:
		heading = fmt.Sprintf("### 🧙 Player died, killed by %s", models.StringOr(ev.Data, "killedBy", "unknown"))
	case models.EventNewLevel:
		heading = fmt.Sprintf("## 🗺️ Descended to depth %s, a %s area",
			models.StringOr(ev.Data, "depth", "?"),
			models.StringOr(ev.Data, "environmentType", "dungeon"))
	default:
		heading = fmt.Sprintf("## %s - Received %s", l.now().Format("15:04:05"), ev.Type)
	}

	entry := heading + "\n\n"
	if len(ev.Data) > 0 {
		b, err := json.MarshalIndent(ev.Data, "", "  ")
		if err != nil {
			return fmt.Errorf("encode event data: %w", err)
		}
		entry += "```json\n" + string(b) + "\n```\n\n"
	}
	return l.append(entry)
}

// Narrative logs generated narration as an italic quote.
func (l *SessionLog) Narrative(text string) error {
	return l.append(fmt.Sprintf("> *%s*\n\n", text))
}

// Note logs a timestamped server action.
func (l *SessionLog) Note(msg string) error {
	return l.append(fmt.Sprintf("## %s - %s\n\n", l.now().Format("15:04:05"), msg))
}

// Read returns the whole log.
func (l *SessionLog) Read() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return os.ReadFile(l.path)
}

func (l *SessionLog) append(s string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}
	if _, err := f.WriteString(s); err != nil {
		f.Close()
		return fmt.Errorf("write session log: %w", err)
	}
	return f.Close()
}
