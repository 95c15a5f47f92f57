package debate

import "time"

// TranscriptEntry records one turn. Entries are never mutated once appended.
type TranscriptEntry struct {
	ID        string    `json:"id"`
	Seq       int       `json:"seq"`
	Round     int       `json:"round"`
	Role      Role      `json:"role"`
	Model     string    `json:"model,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// ResultEntry is the display projection handed to pollers.
type ResultEntry struct {
	Role     Role   `json:"role"`
	Message  string `json:"message"`
	Colour   string `json:"colour"`
	Model    string `json:"model,omitempty"`
	Debating bool   `json:"debating"`
}

// Project derives the result entry pushed alongside a transcript append.
func (e TranscriptEntry) Project() ResultEntry {
	return ResultEntry{
		Role:     e.Role,
		Message:  e.Message,
		Colour:   e.Role.Colour(),
		Model:    e.Model,
		Debating: true,
	}
}

// NoticeEntry builds a result entry that has no transcript counterpart,
// such as gateway output or an engine failure report.
func NoticeEntry(role Role, message string) ResultEntry {
	return ResultEntry{Role: role, Message: message, Colour: role.Colour()}
}
