package debate

import (
	"math/rand/v2"
	"sync"

	model "github.com/zhouzirui/roundtable/backend/internal/model/debate"
)

// Scheduler orders the speakers of each round.
type Scheduler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewScheduler shuffles with the process-wide random source.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// NewSeededScheduler shuffles deterministically; tests use it.
func NewSeededScheduler(seed uint64) *Scheduler {
	return &Scheduler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Shuffle returns a fresh random ordering of speakers. The input slice is
// not modified, and every call is independent of the previous one.
func (s *Scheduler) Shuffle(speakers []*Handle) []*Handle {
	order := append([]*Handle(nil), speakers...)
	swap := func(i, j int) { order[i], order[j] = order[j], order[i] }

	if s == nil || s.rng == nil {
		rand.Shuffle(len(order), swap)
		return order
	}

	s.mu.Lock()
	s.rng.Shuffle(len(order), swap)
	s.mu.Unlock()
	return order
}

// ExtractFacilitator removes the first facilitator, by configuration order,
// from the round-robin. Later facilitator cards stay in the round-robin as
// regular speakers.
func ExtractFacilitator(handles []*Handle) (*Handle, []*Handle, error) {
	for i, h := range handles {
		if h.Card.Role != model.RoleFacilitator {
			continue
		}
		speakers := make([]*Handle, 0, len(handles)-1)
		speakers = append(speakers, handles[:i]...)
		speakers = append(speakers, handles[i+1:]...)
		return h, speakers, nil
	}
	return nil, nil, configurationError(ErrNoFacilitator, "")
}
