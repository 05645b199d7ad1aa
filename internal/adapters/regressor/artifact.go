package regressor

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/gzip"

	"github.com/okian/marathon/internal/domain/model"
)

// Artifact identification.
const (
	ArtifactFormat  = "marathon-regressor"
	ArtifactVersion = 1

	KindLinear       = "linear"
	KindTreeEnsemble = "tree_ensemble"

	AggregationSum  = "sum"
	AggregationMean = "mean"

	targetHours = "hours"
)

var gzipMagic = []byte{0x1f, 0x8b}

// artifact is the on-disk document produced by the training pipeline.
type artifact struct {
	Format   string            `json:"format"`
	Version  int               `json:"version"`
	Kind     string            `json:"kind"`
	Target   string            `json:"target"`
	Features []string          `json:"features"`
	Linear   *linearSpec       `json:"linear,omitempty"`
	Ensemble *ensembleSpec     `json:"ensemble,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type linearSpec struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

type ensembleSpec struct {
	BaseScore    float64    `json:"base_score"`
	LearningRate float64    `json:"learning_rate"`
	Aggregation  string     `json:"aggregation"`
	Trees        []treeSpec `json:"trees"`
}

type treeSpec struct {
	Nodes []nodeSpec `json:"nodes"`
}

// nodeSpec is one node of an array-encoded regression tree. Internal nodes send
// x[Feature] <= Threshold to Left and everything else to Right.
type nodeSpec struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

// decodeArtifact reads a JSON artifact, transparently inflating gzip input.
func decodeArtifact(r io.Reader) (*artifact, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(gzipMagic))
	if err == nil && bytes.Equal(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer zr.Close()
		r = zr
	} else {
		r = br
	}

	var a artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return &a, nil
}

// validate checks the artifact against the feature schema before it is used.
func (a *artifact) validate() error {
	if a.Format != ArtifactFormat {
		return fmt.Errorf("format %q, want %q", a.Format, ArtifactFormat)
	}
	if a.Version != ArtifactVersion {
		return fmt.Errorf("unsupported version %d", a.Version)
	}
	if a.Target != "" && a.Target != targetHours {
		return fmt.Errorf("target %q, want %q", a.Target, targetHours)
	}
	if err := checkFeatureOrder(a.Features); err != nil {
		return err
	}

	switch a.Kind {
	case KindLinear:
		if a.Linear == nil {
			return fmt.Errorf("kind %s without linear block", a.Kind)
		}
		return a.Linear.validate()
	case KindTreeEnsemble:
		if a.Ensemble == nil {
			return fmt.Errorf("kind %s without ensemble block", a.Kind)
		}
		return a.Ensemble.validate()
	default:
		return fmt.Errorf("unknown kind %q", a.Kind)
	}
}

func checkFeatureOrder(features []string) error {
	if len(features) != model.FeatureCount {
		return fmt.Errorf("artifact declares %d features, want %d", len(features), model.FeatureCount)
	}
	for i, name := range features {
		if name != model.FieldNames[i] {
			return fmt.Errorf("feature %d is %q, want %q", i, name, model.FieldNames[i])
		}
	}
	return nil
}

func (l *linearSpec) validate() error {
	if len(l.Coefficients) != model.FeatureCount {
		return fmt.Errorf("linear model has %d coefficients, want %d", len(l.Coefficients), model.FeatureCount)
	}
	if !finite(l.Intercept) {
		return fmt.Errorf("intercept is not finite")
	}
	for i, c := range l.Coefficients {
		if !finite(c) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	return nil
}

func (e *ensembleSpec) validate() error {
	if len(e.Trees) == 0 {
		return fmt.Errorf("ensemble has no trees")
	}
	switch e.Aggregation {
	case "", AggregationSum, AggregationMean:
	default:
		return fmt.Errorf("unknown aggregation %q", e.Aggregation)
	}
	if !finite(e.BaseScore) || !finite(e.LearningRate) || e.LearningRate < 0 {
		return fmt.Errorf("base_score and learning_rate must be finite, learning_rate non-negative")
	}
	for i := range e.Trees {
		if err := e.Trees[i].validate(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// validate requires children to sit after their parent, which also rules out
// cycles, so evaluation always terminates.
func (t *treeSpec) validate() error {
	n := len(t.Nodes)
	if n == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, node := range t.Nodes {
		if node.Leaf {
			if !finite(node.Value) {
				return fmt.Errorf("node %d: leaf value is not finite", i)
			}
			continue
		}
		if node.Feature < 0 || node.Feature >= model.FeatureCount {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.Feature)
		}
		if !finite(node.Threshold) {
			return fmt.Errorf("node %d: threshold is not finite", i)
		}
		if node.Left <= i || node.Left >= n || node.Right <= i || node.Right >= n {
			return fmt.Errorf("node %d: children (%d, %d) out of range", i, node.Left, node.Right)
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
