package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// StagePlayability names the market playability gate.
const StagePlayability = "playability"

// CalendarEvent is one entry of the read-only calendar snapshot supplied by
// the news collaborator.
type CalendarEvent struct {
	Time     time.Time `json:"time"`
	Currency string    `json:"currency"`
	Impact   string    `json:"impact"`
	Title    string    `json:"title"`
}

// ImpactHigh is the only impact level that triggers the blackout window.
const ImpactHigh = "High"

// CalendarSnapshot is a point-in-time view of upcoming and recent events.
// Complete=false means the collaborator could not refresh in time; the gate
// treats that as unknown risk and vetoes rather than assuming safe.
type CalendarSnapshot struct {
	Events   []CalendarEvent `json:"events"`
	Complete bool            `json:"complete"`
}

// MarketSnapshot carries the quote and liquidity readings the playability
// gate needs.
type MarketSnapshot struct {
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Volume float64 `json:"volume"`
}

// SpreadRatio returns spread over mid price, or NaN for a crossed or empty
// book.
func (m MarketSnapshot) SpreadRatio() float64 {
	if m.Bid <= 0 || m.Ask <= 0 || m.Bid >= m.Ask {
		return math.NaN()
	}
	mid := (m.Bid + m.Ask) / 2
	return (m.Ask - m.Bid) / mid
}

// InstrumentClass buckets instruments for class-specific spread ceilings.
type InstrumentClass string

const (
	ClassFX     InstrumentClass = "fx"
	ClassMetal  InstrumentClass = "metal"
	ClassIndex  InstrumentClass = "index"
	ClassCrypto InstrumentClass = "crypto"
)

// ClassifyInstrument infers the instrument class from its symbol. Six-letter
// currency pairs are FX; XAU/XAG prefixes are metals; anything ending in a
// stablecoin quote is crypto; the rest are treated as indices.
func ClassifyInstrument(instrument string) InstrumentClass {
	up := strings.ToUpper(instrument)
	switch {
	case strings.HasPrefix(up, "XAU"), strings.HasPrefix(up, "XAG"):
		return ClassMetal
	case strings.HasSuffix(up, "USDT"), strings.HasSuffix(up, "USDC"):
		return ClassCrypto
	case len(up) == 6:
		return ClassFX
	default:
		return ClassIndex
	}
}

// InstrumentCurrencies splits an FX-style symbol into base and quote. For
// non-FX instruments the quote falls back to USD so index and metal events
// still match dollar news.
func InstrumentCurrencies(instrument string) (base, quote string) {
	up := strings.ToUpper(instrument)
	if len(up) == 6 {
		return up[:3], up[3:]
	}
	if strings.HasPrefix(up, "XAU") || strings.HasPrefix(up, "XAG") {
		return up[:3], "USD"
	}
	return up, "USD"
}

// PlayabilityThresholds configure the veto conditions of the gate.
type PlayabilityThresholds struct {
	BlackoutBefore time.Duration
	BlackoutAfter  time.Duration
	SpreadCeilings map[InstrumentClass]float64
	MinVolume      float64
	TensionExtreme float64
}

func DefaultPlayabilityThresholds() PlayabilityThresholds {
	return PlayabilityThresholds{
		BlackoutBefore: 30 * time.Minute,
		BlackoutAfter:  30 * time.Minute,
		SpreadCeilings: map[InstrumentClass]float64{
			ClassFX:     0.0005, // 0.05%
			ClassMetal:  0.0010,
			ClassIndex:  0.0008,
			ClassCrypto: 0.0015,
		},
		MinVolume:      1,
		TensionExtreme: 80,
	}
}

// PlayabilityInputs gather everything the gate inspects. Calendar may be nil
// when the collaborator failed to deliver a snapshot.
type PlayabilityInputs struct {
	Instrument string
	Now        time.Time
	Market     MarketSnapshot
	Calendar   *CalendarSnapshot
	Regime     MarketRegimeContext
	Traits     StrategyTraits
	Budget     *TradeBudget
}

// EvaluatePlayabilityGate vetoes setups the market itself makes unplayable:
// missing calendar context, a high-impact blackout window, excessive spread,
// dead volume, extreme global tension, or an exhausted daily trade budget.
// Conditions are checked independently and each vetoes with its own reason.
func EvaluatePlayabilityGate(in PlayabilityInputs, th PlayabilityThresholds) GateResult {
	if in.Calendar == nil || !in.Calendar.Complete {
		return Veto(StagePlayability, "calendar snapshot unavailable: treating event risk as unknown")
	}

	base, quote := InstrumentCurrencies(in.Instrument)
	for _, ev := range in.Calendar.Events {
		if ev.Impact != ImpactHigh {
			continue
		}
		if ev.Currency != base && ev.Currency != quote {
			continue
		}
		from := ev.Time.Add(-th.BlackoutBefore)
		to := ev.Time.Add(th.BlackoutAfter)
		if !in.Now.Before(from) && !in.Now.After(to) {
			mins := ev.Time.Sub(in.Now).Minutes()
			return Veto(StagePlayability,
				fmt.Sprintf("news blackout: %s (%s) at T%+.0fmin", ev.Title, ev.Currency, mins),
				GateEvidence{OK: false, Value: mins, Threshold: th.BlackoutBefore.Minutes(), Name: "news_blackout"})
		}
	}

	class := ClassifyInstrument(in.Instrument)
	ceiling, ok := th.SpreadCeilings[class]
	if !ok {
		ceiling = th.SpreadCeilings[ClassFX]
	}
	ratio := in.Market.SpreadRatio()
	if math.IsNaN(ratio) || ratio > ceiling {
		return Veto(StagePlayability,
			fmt.Sprintf("spread %.4f%% above %s ceiling %.4f%%", ratio*100, class, ceiling*100),
			GateEvidence{OK: false, Value: ratio, Threshold: ceiling, Name: "spread_ratio"})
	}

	if in.Market.Volume < th.MinVolume {
		return Veto(StagePlayability,
			fmt.Sprintf("traded volume %.2f below floor %.2f", in.Market.Volume, th.MinVolume),
			GateEvidence{OK: false, Value: in.Market.Volume, Threshold: th.MinVolume, Name: "volume"})
	}

	if in.Regime.GlobalTension >= th.TensionExtreme && !in.Traits.PanicReversal {
		return Veto(StagePlayability,
			fmt.Sprintf("global tension %.0f at panic levels (threshold %.0f)", in.Regime.GlobalTension, th.TensionExtreme),
			GateEvidence{OK: false, Value: in.Regime.GlobalTension, Threshold: th.TensionExtreme, Name: "global_tension"})
	}

	if in.Budget != nil {
		if ok, reason := in.Budget.CanOpen(in.Instrument, in.Now); !ok {
			return Veto(StagePlayability, reason)
		}
	}

	return Pass(StagePlayability,
		GateEvidence{OK: true, Value: ratio, Threshold: ceiling, Name: "spread_ratio"},
		GateEvidence{OK: true, Value: in.Market.Volume, Threshold: th.MinVolume, Name: "volume"},
		GateEvidence{OK: true, Value: in.Regime.GlobalTension, Threshold: th.TensionExtreme, Name: "global_tension"},
	)
}
