// Package scoring turns raw detector and adapter findings into final severities and
// confidences.
package scoring

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/harshilnayi/BlockScope/internal/analysis"
	"github.com/harshilnayi/BlockScope/internal/model"
)

// Predictor is an optional external confidence signal, such as a trained model.
// Returned values must lie in [0, 1]; anything else is ignored.
type Predictor interface {
	Predict(ctx context.Context, features map[string]float64) (float64, error)
}

type PredictorFunc func(ctx context.Context, features map[string]float64) (float64, error)

func (f PredictorFunc) Predict(ctx context.Context, features map[string]float64) (float64, error) {
	return f(ctx, features)
}

// Ladder holds the lower score bounds of each severity class.
type Ladder struct {
	Critical float64 `mapstructure:"critical" yaml:"critical"`
	High     float64 `mapstructure:"high" yaml:"high"`
	Medium   float64 `mapstructure:"medium" yaml:"medium"`
}

func (l Ladder) Classify(score float64) model.Severity {
	switch {
	case score >= l.Critical:
		return model.SeverityCritical
	case score >= l.High:
		return model.SeverityHigh
	case score >= l.Medium:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

type Config struct {
	Ladder          Ladder             `mapstructure:"ladder" yaml:"ladder"`
	ConfidenceFloor float64            `mapstructure:"confidence_floor" yaml:"confidence_floor"`
	SeverityWeights map[string]float64 `mapstructure:"severity_weights" yaml:"severity_weights"`
	// risk multiplier terms
	SizeWeight          float64 `mapstructure:"size_weight" yaml:"size_weight"`
	SizeNorm            float64 `mapstructure:"size_norm" yaml:"size_norm"`
	DensityWeight       float64 `mapstructure:"density_weight" yaml:"density_weight"`
	ValueTransferWeight float64 `mapstructure:"value_transfer_weight" yaml:"value_transfer_weight"`
	ConfidenceWeight    float64 `mapstructure:"confidence_weight" yaml:"confidence_weight"`
	// share of the predictor output in the blended confidence
	PredictorWeight float64 `mapstructure:"predictor_weight" yaml:"predictor_weight"`
}

func DefaultConfig() Config {
	return Config{
		Ladder:          Ladder{Critical: 0.85, High: 0.65, Medium: 0.4},
		ConfidenceFloor: 0.3,
		SeverityWeights: map[string]float64{
			string(model.SeverityCritical): 0.9,
			string(model.SeverityHigh):     0.7,
			string(model.SeverityMedium):   0.5,
			string(model.SeverityLow):      0.25,
		},
		SizeWeight:          0.05,
		SizeNorm:            20,
		DensityWeight:       0.10,
		ValueTransferWeight: 0.05,
		ConfidenceWeight:    0.1,
		PredictorWeight:     0.5,
	}
}

// Validate rejects ladders that are not strictly descending and out-of-range weights.
func (c Config) Validate() error {
	l := c.Ladder
	if !(l.Critical > l.High && l.High > l.Medium && l.Medium > 0 && l.Critical <= 1) {
		return fmt.Errorf("scoring ladder must satisfy 1 >= critical > high > medium > 0, got %+v", l)
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return fmt.Errorf("confidence floor %v outside [0,1]", c.ConfidenceFloor)
	}
	if c.PredictorWeight < 0 || c.PredictorWeight > 1 {
		return fmt.Errorf("predictor weight %v outside [0,1]", c.PredictorWeight)
	}
	for _, s := range model.Severities {
		if _, ok := c.SeverityWeights[string(s)]; !ok {
			return fmt.Errorf("missing severity weight for %s", s)
		}
	}
	return nil
}

type Calculator struct {
	cfg       Config
	predictor Predictor
	log       *slog.Logger
}

// NewCalculator returns a calculator; predictor and log may be nil.
func NewCalculator(cfg Config, predictor Predictor, log *slog.Logger) *Calculator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Calculator{cfg: cfg, predictor: predictor, log: log}
}

// Score computes the final severity, confidence and score of f. The boolean is false
// when the confidence falls below the floor and the finding must be dropped.
func (c *Calculator) Score(ctx context.Context, f model.Finding, cc analysis.ContractContext) (model.Finding, bool) {
	conf := clamp01(f.Confidence)
	if p, ok := c.predict(ctx, Features(f, cc)); ok {
		w := c.cfg.PredictorWeight
		conf = (1-w)*conf + w*p
	}
	if conf < c.cfg.ConfidenceFloor {
		return f, false
	}
	weight, ok := c.cfg.SeverityWeights[string(f.Severity)]
	if !ok {
		weight = c.cfg.SeverityWeights[string(model.SeverityLow)]
	}
	score := clamp01(weight*c.multiplier(cc) + c.cfg.ConfidenceWeight*(conf-0.5))
	f.Score = round3(score)
	f.Confidence = round3(conf)
	f.Severity = c.cfg.Ladder.Classify(f.Score)
	return f, true
}

func (c *Calculator) multiplier(cc analysis.ContractContext) float64 {
	m := 1.0
	if c.cfg.SizeNorm > 0 {
		m += c.cfg.SizeWeight * math.Min(1, float64(cc.Functions)/c.cfg.SizeNorm)
	}
	m += c.cfg.DensityWeight * math.Min(1, cc.CallDensity())
	if cc.HasValueTransfer {
		m += c.cfg.ValueTransferWeight
	}
	return m
}

func (c *Calculator) predict(ctx context.Context, features map[string]float64) (p float64, ok bool) {
	if c.predictor == nil {
		return 0, false
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("predictor panicked", "panic", r)
			p, ok = 0, false
		}
	}()
	v, err := c.predictor.Predict(ctx, features)
	if err != nil {
		c.log.Debug("predictor failed", "err", err)
		return 0, false
	}
	if math.IsNaN(v) || v < 0 || v > 1 {
		c.log.Debug("predictor value out of range", "value", v)
		return 0, false
	}
	return v, true
}

// Features describes a finding and its contract for a Predictor.
func Features(f model.Finding, cc analysis.ContractContext) map[string]float64 {
	value := 0.0
	if cc.HasValueTransfer {
		value = 1
	}
	feats := map[string]float64{
		"prior_severity":   float64(f.Severity.Rank()),
		"prior_confidence": f.Confidence,
		"lines":            float64(cc.Lines),
		"functions":        float64(cc.Functions),
		"external_calls":   float64(cc.ExternalCalls),
		"call_density":     cc.CallDensity(),
		"value_transfer":   value,
		"corroboration":    float64(len(f.CorroboratedBy)),
	}
	for _, k := range model.Kinds {
		feats["kind_"+string(k)] = 0
	}
	feats["kind_"+string(f.Kind)] = 1
	return feats
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
