package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	appscoring "github.com/dealershipai/visibility-engine/internal/application/scoring"
	"github.com/dealershipai/visibility-engine/internal/application/validation"
	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/internal/domain/scoring"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// Dispatcher actions.
const (
	ActionCalculateScore = "calculate_score"
	ActionGetHealth      = "get_health"
	ActionRunBatch       = "run_batch"
)

// Scorer runs one dealer's scoring cycle.
type Scorer interface {
	ScoreDealer(ctx context.Context, d *dealer.Dealer) (*scoring.Result, error)
}

// BatchRunner runs the whole active fleet.
type BatchRunner interface {
	Run(ctx context.Context) (*appscoring.BatchReport, error)
}

// HealthSource serves the latest health snapshot.
type HealthSource interface {
	Snapshot() validation.SystemHealthMetrics
}

// ScoringHandler is the single action-dispatch endpoint the dashboard
// talks to.
type ScoringHandler struct {
	scorer  Scorer
	batch   BatchRunner
	health  HealthSource
	dealers dealer.Repository
	log     logging.Logger
}

func NewScoringHandler(scorer Scorer, batch BatchRunner, health HealthSource, dealers dealer.Repository, log logging.Logger) *ScoringHandler {
	return &ScoringHandler{
		scorer:  scorer,
		batch:   batch,
		health:  health,
		dealers: dealers,
		log:     log.Named("http"),
	}
}

// ActionRequest is the dispatch payload.  calculate_score accepts the
// entity inline: a request carrying a name is upserted before scoring, so
// the caller does not need a pre-registered dealer row.  dealer_id alone
// looks up an existing row.
type ActionRequest struct {
	Action   string    `json:"action"`
	DealerID common.ID `json:"dealer_id,omitempty"`

	Name          string    `json:"name,omitempty"`
	Aliases       []string  `json:"aliases,omitempty"`
	Domain        string    `json:"domain,omitempty"`
	City          string    `json:"city,omitempty"`
	State         string    `json:"state,omitempty"`
	EstablishedAt time.Time `json:"established_at,omitempty"`
	Brand         string    `json:"brand,omitempty"`
	Models        []string  `json:"models,omitempty"`
	WebsiteURL    string    `json:"website_url,omitempty"`
	BlogURL       string    `json:"blog_url,omitempty"`
}

// dealer builds the inline entity.  A missing id is generated so ad-hoc
// scoring requests need not invent one.
func (r *ActionRequest) dealer() *dealer.Dealer {
	id := r.DealerID
	if id == "" {
		id = common.NewID()
	}
	return &dealer.Dealer{
		ID:            id,
		Name:          r.Name,
		Aliases:       r.Aliases,
		Domain:        r.Domain,
		City:          r.City,
		State:         r.State,
		EstablishedAt: r.EstablishedAt,
		Brand:         r.Brand,
		Models:        r.Models,
		WebsiteURL:    r.WebsiteURL,
		BlogURL:       r.BlogURL,
	}
}

// Dispatch handles POST /api/v1/scoring.
func (h *ScoringHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeBadRequest(w, "malformed request body")
		return
	}

	switch req.Action {
	case ActionCalculateScore:
		h.calculateScore(w, r, &req)
	case ActionGetHealth:
		h.getHealth(w)
	case ActionRunBatch:
		h.runBatch(w, r)
	default:
		writeBadRequest(w, "unknown action")
	}
}

func (h *ScoringHandler) calculateScore(w http.ResponseWriter, r *http.Request, req *ActionRequest) {
	ctx := r.Context()

	var d *dealer.Dealer
	switch {
	case req.Name != "":
		d = req.dealer()
		if err := h.dealers.Upsert(ctx, d); err != nil {
			h.log.Warn("dealer upsert failed",
				logging.String("dealer_id", string(d.ID)),
				logging.Err(err))
			writeAppError(w, err)
			return
		}
	case req.DealerID != "":
		var err error
		d, err = h.dealers.GetByID(ctx, req.DealerID)
		if err != nil {
			h.log.Warn("dealer lookup failed",
				logging.String("dealer_id", string(req.DealerID)),
				logging.Err(err))
			writeAppError(w, err)
			return
		}
	default:
		writeBadRequest(w, "calculate_score needs a dealer payload or a dealer_id")
		return
	}

	result, err := h.scorer.ScoreDealer(ctx, d)
	if err != nil {
		h.log.Error("scoring cycle failed",
			logging.String("dealer_id", string(d.ID)),
			logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeData(w, result)
}

func (h *ScoringHandler) getHealth(w http.ResponseWriter) {
	if h.health == nil {
		writeAppError(w, errors.New(errors.ErrCodeServiceUnavailable, "health engine not running"))
		return
	}
	writeData(w, h.health.Snapshot())
}

func (h *ScoringHandler) runBatch(w http.ResponseWriter, r *http.Request) {
	report, err := h.batch.Run(r.Context())
	if err != nil {
		// A partial report still reaches the caller alongside the error
		// code when some dealers were processed before the failure.
		if report != nil && report.Attempted > 0 {
			h.log.Warn("batch run incomplete", logging.Err(err))
			writeJSON(w, http.StatusOK, Envelope{Success: true, Data: report})
			return
		}
		h.log.Error("batch run failed", logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeData(w, report)
}
