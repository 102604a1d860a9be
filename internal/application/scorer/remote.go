package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/verdictfx/verdict/internal/domain"
)

// RemoteScorer delegates inference to the external model service. Calls are
// rate limited, time bounded and wrapped in a circuit breaker so a dead
// service degrades to fast failures instead of piling up timeouts.
type RemoteScorer struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// scoreRequest is the wire format of the inference service.
type scoreRequest struct {
	Instrument string        `json:"instrument"`
	Timeframe  string        `json:"timeframe"`
	StrategyID string        `json:"strategy_id"`
	Features   scoreFeatures `json:"features"`
}

type scoreFeatures struct {
	RR          float64 `json:"rr"`
	Confidence  float64 `json:"confidence"`
	ExpectancyR float64 `json:"expectancy_r"`
	Regime      string  `json:"regime"`
	Volatility  float64 `json:"volatility"`
}

type scoreResponse struct {
	MLScore     float64                     `json:"ml_score"`
	Blacklisted bool                        `json:"blacklisted"`
	Reason      string                      `json:"reason"`
	Adjustments domain.ParameterAdjustments `json:"parameter_adjustments"`
}

func NewRemoteScorer(cfg Config, log zerolog.Logger) *RemoteScorer {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "model_scorer",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("model scorer breaker state change")
		},
	})
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 5
	}
	return &RemoteScorer{
		baseURL:    cfg.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		log:        log.With().Str("component", "remote_scorer").Logger(),
	}
}

func (s *RemoteScorer) Name() string { return "model" }

// Score posts the candidate to the inference service and maps its ml_score
// back onto the common contract. A blacklisted response is a valid outcome,
// not an error; it becomes a veto one layer up.
func (s *RemoteScorer) Score(ctx context.Context, req Request) (Outcome, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Outcome{}, fmt.Errorf("scorer rate limit: %w", err)
	}

	payload := scoreRequest{
		Instrument: req.Instrument,
		Timeframe:  req.Timeframe,
		StrategyID: req.StrategyID,
		Features: scoreFeatures{
			RR:          req.Features.RR,
			Confidence:  req.Features.ConfidenceRaw,
			ExpectancyR: req.Expectancy,
			Regime:      string(req.Regime.Regime),
			Volatility:  req.Regime.VolatilityPercentile,
		},
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.post(ctx, payload)
	})
	if err != nil {
		return Outcome{}, err
	}
	resp := result.(*scoreResponse)

	p := resp.MLScore / 100.0
	out := Outcome{
		WinProbability: p,
		ExpectedR:      p*req.Features.RR - (1 - p),
		Blacklisted:    resp.Blacklisted,
		Reason:         resp.Reason,
		Adjustments:    resp.Adjustments,
	}
	if err := validateOutcome(s.Name(), out); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (s *RemoteScorer) post(ctx context.Context, payload scoreRequest) (*scoreResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal score request: %w", err)
	}

	url := s.baseURL + "/api/v1/score"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create score request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("score request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, fmt.Errorf("score request: status %d: %s", httpResp.StatusCode, data)
	}

	var resp scoreResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode score response: %w", err)
	}
	return &resp, nil
}

// Probe checks the service health endpoint once, at startup.
func (s *RemoteScorer) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe: status %d", resp.StatusCode)
	}
	return nil
}
