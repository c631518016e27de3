package printer

import "github.com/joshuapare/memsim/ledger"

// allocatedEvent is a successful request in JSON format.
type allocatedEvent struct {
	Event    string          `json:"event"`
	Owner    string          `json:"owner"`
	Start    int64           `json:"start"`
	Size     int64           `json:"size"`
	Strategy ledger.Strategy `json:"strategy"`
}

// releasedEvent is a successful release in JSON format.
type releasedEvent struct {
	Event string `json:"event"`
	Owner string `json:"owner"`
	Start int64  `json:"start"`
	Size  int64  `json:"size"`
}

type compactedEvent struct {
	Event string `json:"event"`
	ledger.CompactionReport
}

// jsonRegion is one status line in JSON format. Last is inclusive.
type jsonRegion struct {
	Start int64  `json:"start"`
	Last  int64  `json:"last"`
	Size  int64  `json:"size"`
	Free  bool   `json:"free"`
	Owner string `json:"owner,omitempty"`
}

type statusEvent struct {
	Event   string       `json:"event"`
	Total   int64        `json:"total"`
	Used    int64        `json:"used"`
	Free    int64        `json:"free"`
	Regions []jsonRegion `json:"regions"`
}

type errorEvent struct {
	Event string `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

func newStatusEvent(regions []ledger.Region, total int64) statusEvent {
	ev := statusEvent{
		Event:   "status",
		Total:   total,
		Regions: make([]jsonRegion, 0, len(regions)),
	}
	for _, r := range regions {
		ev.Regions = append(ev.Regions, jsonRegion{
			Start: r.Start,
			Last:  r.Last(),
			Size:  r.Size,
			Free:  r.Free(),
			Owner: r.Owner,
		})
		if r.Free() {
			ev.Free += r.Size
		} else {
			ev.Used += r.Size
		}
	}
	return ev
}
