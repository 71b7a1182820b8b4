package loadtest

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/okian/scoutsync/internal/adapters/mq/worker"
	"github.com/okian/scoutsync/internal/domain/model"
)

// Plan is every batch the devices will send and the state the server must end
// up in.
type Plan struct {
	Jobs     []worker.Job
	WantPit  map[int]model.PitRecord
	MatchIDs map[string]struct{}
	Resent   int
}

// Items returns the number of items across all jobs.
func (p *Plan) Items() int {
	n := 0
	for _, j := range p.Jobs {
		n += len(j.Items)
	}
	return n
}

// DeviceName returns the id used by simulated device i.
func DeviceName(i int) string { return fmt.Sprintf("load-%02d", i) }

// generate builds a plan. Pit timestamps are unique across the whole run so
// the expected winner per team is unambiguous.
func generate(cfg *Config, base time.Time) *Plan {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	teams := model.Teams()
	if cfg.Teams < len(teams) {
		teams = teams[:cfg.Teams]
	}

	plan := &Plan{
		WantPit:  map[int]model.PitRecord{},
		MatchIDs: map[string]struct{}{},
	}
	stamps := rng.Perm(cfg.Devices * cfg.PitWrites)
	baseMS := model.Millis(base)

	for d := 0; d < cfg.Devices; d++ {
		device := DeviceName(d)
		var items []model.SyncItem

		for i := 0; i < cfg.PitWrites; i++ {
			team := teams[rng.IntN(len(teams))].Number
			rec := model.NewPitRecord(team)
			rec.LastUpdated = baseMS + int64(stamps[d*cfg.PitWrites+i]) + 1
			rec.Comments = fmt.Sprintf("%s#%d", device, i)
			rec.Climb.MaxLevel = fmt.Sprintf("L%d", rng.IntN(4))
			items = append(items, model.PitItem(rec))
			if held, ok := plan.WantPit[team]; !ok || rec.LastUpdated > held.LastUpdated {
				plan.WantPit[team] = rec
			}
		}

		var resend []model.SyncItem
		for i := 0; i < cfg.Matches; i++ {
			team := teams[rng.IntN(len(teams))].Number
			rec := model.NewMatchRecord(i/6+1, team, base.Add(time.Duration(i)*time.Millisecond))
			rec.Comments = fmt.Sprintf("%s#m%d", device, i)
			rec.MinorFouls = rng.IntN(3)
			items = append(items, model.MatchItem(rec))
			plan.MatchIDs[rec.ID] = struct{}{}
			if i%resendEvery == 0 {
				resend = append(resend, model.MatchItem(rec))
			}
		}

		rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
		items = append(items, resend...)
		plan.Resent += len(resend)

		for start := 0; start < len(items); start += cfg.BatchSize {
			end := min(start+cfg.BatchSize, len(items))
			plan.Jobs = append(plan.Jobs, worker.Job{Device: device, Items: items[start:end]})
		}
	}

	// Interleave devices so their batches race each other.
	rng.Shuffle(len(plan.Jobs), func(i, j int) { plan.Jobs[i], plan.Jobs[j] = plan.Jobs[j], plan.Jobs[i] })
	return plan
}
