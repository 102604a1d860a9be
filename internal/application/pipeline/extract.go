package pipeline

import (
	"fmt"
	"math"
	"time"

	talib "github.com/markcheno/go-talib"

	"github.com/verdictfx/verdict/internal/domain"
)

// Candidate is the raw setup handed over by an upstream strategy. The
// extractor normalizes it into the immutable feature vector the funnel
// consumes.
type Candidate struct {
	Instrument string           `json:"instrument"`
	Timeframe  string           `json:"timeframe"`
	StrategyID string           `json:"strategy_id"`
	Direction  domain.Direction `json:"direction"`
	EntryType  domain.EntryType `json:"entry_type"`
	Entry      float64          `json:"entry"`
	// StopLoss/TakeProfit are the strategy's proposal; zero lets the risk
	// resolver size them from ATR.
	StopLoss      float64 `json:"stop_loss,omitempty"`
	TakeProfit    float64 `json:"take_profit,omitempty"`
	ConfidenceRaw float64 `json:"confidence_raw"`
}

const minCandlesForIndicators = 210

// ExtractFeatures derives the feature vector and indicator snapshot from the
// candidate plus candle history. It is a leaf: pure computation, no state.
func ExtractFeatures(c Candidate, candles []domain.Candle, regime domain.MarketRegimeContext, cal *domain.CalendarSnapshot, now time.Time) (domain.FeatureVector, domain.IndicatorSnapshot, error) {
	if len(candles) < minCandlesForIndicators {
		return domain.FeatureVector{}, domain.IndicatorSnapshot{}, fmt.Errorf("%w: need %d candles, got %d",
			domain.ErrInvalidFeatures, minCandlesForIndicators, len(candles))
	}

	closes := domain.Closes(candles)
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, cd := range candles {
		highs[i] = cd.High
		lows[i] = cd.Low
	}

	ema200 := talib.Ema(closes, 200)
	rsi := talib.Rsi(closes, 14)
	macdLine, macdSignal, macdHist := talib.Macd(closes, 12, 26, 9)
	atr := talib.Atr(highs, lows, closes, 14)
	adx := talib.Adx(highs, lows, closes, 14)

	last := len(closes) - 1
	ind := domain.IndicatorSnapshot{
		Price:         closes[last],
		EMA200:        ema200[last],
		RSI14:         rsi[last],
		MACDHistogram: macdHist[last],
		MACDBullCross: macdLine[last-1] <= macdSignal[last-1] && macdLine[last] > macdSignal[last],
		MACDBearCross: macdLine[last-1] >= macdSignal[last-1] && macdLine[last] < macdSignal[last],
		ATR14:         atr[last],
		ADX:           adx[last],
	}

	stop := c.StopLoss
	if stop == 0 {
		stop = c.Entry - c.Direction.Sign()*1.5*ind.ATR14
	}
	target := c.TakeProfit
	if target == 0 {
		target = c.Entry + c.Direction.Sign()*3.0*ind.ATR14
	}

	risk := math.Abs(c.Entry - stop)
	reward := math.Abs(target - c.Entry)
	rr := 0.0
	if risk > 0 {
		rr = reward / risk
	}
	slDistATR := 0.0
	if ind.ATR14 > 0 {
		slDistATR = risk / ind.ATR14
	}

	phase := SessionPhaseAt(now)
	fv := domain.FeatureVector{
		Direction:            c.Direction,
		RR:                   rr,
		SLDistanceATR:        slDistATR,
		EntryType:            c.EntryType,
		TrendStrength:        ind.ADX,
		VolatilityPercentile: regime.VolatilityPercentile,
		HTFBias:              htfBias(closes, ind),
		SessionPhase:         phase,
		NewsProximityMin:     newsProximity(c.Instrument, cal, now),
		TimeOfDayScore:       TimeOfDayScore(phase),
		ConfidenceRaw:        c.ConfidenceRaw,
	}
	return fv, ind, nil
}

// htfBias reads the higher-timeframe bias off the slow averages: both the
// EMA50/EMA200 order and price's side of EMA200 must agree for a full-signed
// bias; a split read is neutral.
func htfBias(closes []float64, ind domain.IndicatorSnapshot) float64 {
	ema50 := talib.Ema(closes, 50)
	fast := ema50[len(ema50)-1]
	switch {
	case fast > ind.EMA200 && ind.Price > ind.EMA200:
		return 1
	case fast < ind.EMA200 && ind.Price < ind.EMA200:
		return -1
	default:
		return 0
	}
}

func newsProximity(instrument string, cal *domain.CalendarSnapshot, now time.Time) int {
	if cal == nil {
		return domain.NewsProximityNone
	}
	base, quote := domain.InstrumentCurrencies(instrument)
	nearest := math.MaxFloat64
	for _, ev := range cal.Events {
		if ev.Impact != domain.ImpactHigh {
			continue
		}
		if ev.Currency != base && ev.Currency != quote {
			continue
		}
		mins := math.Abs(ev.Time.Sub(now).Minutes())
		if mins < nearest {
			nearest = mins
		}
	}
	if nearest == math.MaxFloat64 || nearest > float64(domain.NewsProximityNone) {
		return domain.NewsProximityNone
	}
	return int(nearest)
}

// SessionPhaseAt buckets a UTC timestamp into its trading session.
func SessionPhaseAt(t time.Time) domain.SessionPhase {
	switch h := t.UTC().Hour(); {
	case h >= 0 && h < 7:
		return domain.SessionAsian
	case h >= 7 && h < 9:
		return domain.SessionLondonOpen
	case h >= 9 && h < 12:
		return domain.SessionLondon
	case h >= 12 && h < 16:
		return domain.SessionNYOverlap
	case h >= 16 && h < 20:
		return domain.SessionNY
	default:
		return domain.SessionLateNY
	}
}

// TimeOfDayScore rates session liquidity quality in [0, 1].
func TimeOfDayScore(phase domain.SessionPhase) float64 {
	switch phase {
	case domain.SessionLondonOpen:
		return 0.9
	case domain.SessionNYOverlap:
		return 1.0
	case domain.SessionLondon:
		return 0.75
	case domain.SessionNY:
		return 0.6
	case domain.SessionAsian:
		return 0.35
	default:
		return 0.2
	}
}
