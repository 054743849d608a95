package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	gametypes "github.com/cbodonnell/codeword/pkg/game/types"
	"github.com/cbodonnell/codeword/pkg/log"
	"github.com/cbodonnell/codeword/pkg/metrics"
)

const DefaultPollInterval = 5 * time.Second

// Conference names look like "codeword-{code}@muc.meet.bridge".
var conferenceCodePattern = regexp.MustCompile(`codeword-([^@]+)@`)

// MatchLister lists the live matches the poller records telemetry for.
type MatchLister interface {
	GetAllMatches() []*gametypes.Match
}

// Poller polls the conference bridge's debug endpoint and feeds jitter and
// participant counts into the metrics collector for every live session.
// Sessions without a matching conference get a zero-participant sample so
// the telemetry window stays continuous.
type Poller struct {
	url       string
	interval  time.Duration
	client    *http.Client
	matches   MatchLister
	collector *metrics.Collector
}

// NewPollerOptions contains options for creating a new Poller.
type NewPollerOptions struct {
	// URL is the base URL of the conference bridge.
	URL string
	// Interval between polls. Defaults to DefaultPollInterval.
	Interval time.Duration
	// HTTPClient to poll with. Defaults to a client with a 10s timeout.
	HTTPClient *http.Client
	Matches    MatchLister
	Collector  *metrics.Collector
}

func NewPoller(opts NewPollerOptions) *Poller {
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Poller{
		url:       strings.TrimSuffix(opts.URL, "/"),
		interval:  interval,
		client:    client,
		matches:   opts.Matches,
		collector: opts.Collector,
	}
}

// Start polls until the context is cancelled. Poll failures are logged and
// skipped; they never affect match state.
func (p *Poller) Start(ctx context.Context) {
	log.Info("Bridge poller polling %s every %s", p.url, p.interval)
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Bridge poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	debug, err := p.fetchDebug(ctx)
	if err != nil {
		log.Error("Failed to fetch bridge metrics: %v", err)
		return
	}

	for _, match := range p.matches.GetAllMatches() {
		participants := 0
		for _, conf := range debug.Conferences {
			if codeFromConferenceName(conf.Name) == strings.ToLower(match.Code) {
				participants = len(conf.Endpoints)
				break
			}
		}
		p.collector.Record(match.Code, debug.OverallBridgeJitter, participants)
	}
}

// debugResponse is the subset of the bridge's /debug payload we consume.
type debugResponse struct {
	OverallBridgeJitter float64                    `json:"overall_bridge_jitter"`
	Conferences         map[string]debugConference `json:"conferences"`
	ShutdownState       string                     `json:"shutdownState"`
	Health              struct {
		Success bool `json:"success"`
	} `json:"health"`
	LoadManagement struct {
		Stress string `json:"stress"`
		State  string `json:"state"`
	} `json:"load-management"`
	Drain bool  `json:"drain"`
	Time  int64 `json:"time"`
}

type debugConference struct {
	Name            string            `json:"name"`
	MeetingID       string            `json:"meeting_id"`
	Endpoints       map[string]string `json:"endpoints"`
	RTCStatsEnabled bool              `json:"rtcstatsEnabled"`
}

func (p *Poller) fetchDebug(ctx context.Context) (*debugResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"/debug", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %v", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bridge returned %d", resp.StatusCode)
	}

	var debug debugResponse
	if err := json.NewDecoder(resp.Body).Decode(&debug); err != nil {
		return nil, fmt.Errorf("failed to decode bridge response: %v", err)
	}
	return &debug, nil
}

func codeFromConferenceName(name string) string {
	m := conferenceCodePattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// Health is the bridge snapshot served to the admin view.
type Health struct {
	Status            string       `json:"status"`
	Healthy           bool         `json:"healthy"`
	Stress            float64      `json:"stress"`
	Overloaded        bool         `json:"overloaded"`
	Jitter            float64      `json:"jitter"`
	Drain             bool         `json:"drain"`
	Timestamp         int64        `json:"timestamp"`
	Conferences       []Conference `json:"conferences"`
	ConferenceCount   int          `json:"conferenceCount"`
	TotalParticipants int          `json:"totalParticipants"`
	Error             string       `json:"error,omitempty"`
}

type Conference struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	MeetingID        string        `json:"meetingId"`
	ParticipantCount int           `json:"participantCount"`
	Participants     []Participant `json:"participants"`
	RTCStatsEnabled  bool          `json:"rtcstatsEnabled"`
}

type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Status fetches a point-in-time bridge snapshot. It degrades instead of
// failing: any fetch error produces an UNKNOWN, unhealthy snapshot.
func (p *Poller) Status(ctx context.Context) *Health {
	debug, err := p.fetchDebug(ctx)
	if err != nil {
		log.Error("Failed to fetch bridge status: %v", err)
		return &Health{
			Error:       "failed to fetch bridge metrics",
			Status:      "UNKNOWN",
			Healthy:     false,
			Conferences: []Conference{},
		}
	}

	stress, _ := strconv.ParseFloat(debug.LoadManagement.Stress, 64)

	conferences := make([]Conference, 0, len(debug.Conferences))
	totalParticipants := 0
	for id, conf := range debug.Conferences {
		participants := make([]Participant, 0, len(conf.Endpoints))
		for epID, name := range conf.Endpoints {
			participants = append(participants, Participant{ID: epID, Name: name})
		}
		conferences = append(conferences, Conference{
			ID:               id,
			Name:             conf.Name,
			MeetingID:        conf.MeetingID,
			ParticipantCount: len(conf.Endpoints),
			Participants:     participants,
			RTCStatsEnabled:  conf.RTCStatsEnabled,
		})
		totalParticipants += len(conf.Endpoints)
	}

	return &Health{
		Status:            debug.ShutdownState,
		Healthy:           debug.Health.Success,
		Stress:            stress,
		Overloaded:        debug.LoadManagement.State != "NOT_OVERLOADED",
		Jitter:            debug.OverallBridgeJitter,
		Drain:             debug.Drain,
		Timestamp:         debug.Time,
		Conferences:       conferences,
		ConferenceCount:   len(conferences),
		TotalParticipants: totalParticipants,
	}
}
