package debate

import model "github.com/zhouzirui/roundtable/backend/internal/model/debate"

// Broadcaster shares each turn's output with the rest of the table.
type Broadcaster struct {
	session      *Session
	participants []*Handle
}

// NewBroadcaster covers the facilitator and every speaker of a run.
func NewBroadcaster(session *Session, facilitator *Handle, speakers []*Handle) *Broadcaster {
	participants := make([]*Handle, 0, len(speakers)+1)
	participants = append(participants, facilitator)
	participants = append(participants, speakers...)
	return &Broadcaster{session: session, participants: participants}
}

// Broadcast records the turn and delivers message to every participant
// except speaker.
func (b *Broadcaster) Broadcast(round int, speaker *Handle, message string) model.TranscriptEntry {
	entry := b.session.record(round, speaker.Card, message)
	for _, h := range b.participants {
		if h == speaker {
			continue
		}
		h.Agent.AddContext(message)
	}
	return entry
}
