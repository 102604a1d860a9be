package domain

import "fmt"

// StageTechnical names the trend/momentum alignment gate.
const StageTechnical = "technical"

// IndicatorSnapshot holds the indicator readings the technical gate and the
// risk resolver consume. Callers may supply it directly or derive it from
// candle history via the feature extractor.
type IndicatorSnapshot struct {
	Price         float64 `json:"price"`
	EMA200        float64 `json:"ema200"`
	RSI14         float64 `json:"rsi14"`
	MACDHistogram float64 `json:"macd_histogram"`
	MACDBullCross bool    `json:"macd_bull_cross"`
	MACDBearCross bool    `json:"macd_bear_cross"`
	ATR14         float64 `json:"atr14"`
	ADX           float64 `json:"adx"`
}

// TechnicalThresholds are the RSI bands for each direction. Long setups must
// sit in the upper band, shorts in the mirrored lower band.
type TechnicalThresholds struct {
	LongRSIMin  float64 `yaml:"long_rsi_min" default:"40" validate:"gte=0,lte=100"`
	LongRSIMax  float64 `yaml:"long_rsi_max" default:"70" validate:"gte=0,lte=100,gtfield=LongRSIMin"`
	ShortRSIMin float64 `yaml:"short_rsi_min" default:"30" validate:"gte=0,lte=100"`
	ShortRSIMax float64 `yaml:"short_rsi_max" default:"60" validate:"gte=0,lte=100,gtfield=ShortRSIMin"`
}

func DefaultTechnicalThresholds() TechnicalThresholds {
	return TechnicalThresholds{
		LongRSIMin:  40,
		LongRSIMax:  70,
		ShortRSIMin: 30,
		ShortRSIMax: 60,
	}
}

// EvaluateTechnicalGate applies the boolean trend/momentum alignment rules.
// Long: price above EMA200, RSI inside (40, 70), MACD histogram positive or
// a bullish signal-line cross. Short is the mirror. There is no partial
// credit; any failed condition vetoes.
func EvaluateTechnicalGate(dir Direction, ind IndicatorSnapshot, th TechnicalThresholds) GateResult {
	var trend, rsi, macd GateEvidence

	switch dir {
	case Long:
		trend = GateEvidence{OK: ind.Price > ind.EMA200, Value: ind.Price, Threshold: ind.EMA200, Name: "price_above_ema200"}
		rsi = GateEvidence{OK: ind.RSI14 > th.LongRSIMin && ind.RSI14 < th.LongRSIMax, Value: ind.RSI14, Threshold: th.LongRSIMax, Name: "rsi_band"}
		macd = GateEvidence{OK: ind.MACDHistogram > 0 || ind.MACDBullCross, Value: ind.MACDHistogram, Threshold: 0, Name: "macd_momentum"}
	case Short:
		trend = GateEvidence{OK: ind.Price < ind.EMA200, Value: ind.Price, Threshold: ind.EMA200, Name: "price_below_ema200"}
		rsi = GateEvidence{OK: ind.RSI14 > th.ShortRSIMin && ind.RSI14 < th.ShortRSIMax, Value: ind.RSI14, Threshold: th.ShortRSIMax, Name: "rsi_band"}
		macd = GateEvidence{OK: ind.MACDHistogram < 0 || ind.MACDBearCross, Value: ind.MACDHistogram, Threshold: 0, Name: "macd_momentum"}
	default:
		return Veto(StageTechnical, fmt.Sprintf("unknown direction %q", dir))
	}

	evidence := []GateEvidence{trend, rsi, macd}
	if !trend.OK {
		return Veto(StageTechnical, fmt.Sprintf("price %.5f on wrong side of EMA200 %.5f", ind.Price, ind.EMA200), evidence...)
	}
	if !rsi.OK {
		return Veto(StageTechnical, fmt.Sprintf("RSI %.1f outside %s band", ind.RSI14, dir), evidence...)
	}
	if !macd.OK {
		return Veto(StageTechnical, fmt.Sprintf("MACD histogram %.5f against %s momentum", ind.MACDHistogram, dir), evidence...)
	}
	return Pass(StageTechnical, evidence...)
}
