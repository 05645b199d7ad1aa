package regressor

import "github.com/okian/marathon/internal/domain/model"

// estimator evaluates a validated artifact on one feature row.
type estimator interface {
	eval(x [model.FeatureCount]float64) float64
}

type linear struct {
	intercept float64
	coef      [model.FeatureCount]float64
}

func newLinear(spec *linearSpec) *linear {
	l := &linear{intercept: spec.Intercept}
	copy(l.coef[:], spec.Coefficients)
	return l
}

func (l *linear) eval(x [model.FeatureCount]float64) float64 {
	y := l.intercept
	for i, c := range l.coef {
		y += c * x[i]
	}
	return y
}

type ensemble struct {
	base  float64
	rate  float64
	mean  bool
	trees [][]nodeSpec
}

func newEnsemble(spec *ensembleSpec) *ensemble {
	e := &ensemble{
		base: spec.BaseScore,
		rate: spec.LearningRate,
		mean: spec.Aggregation == AggregationMean,
	}
	if e.rate == 0 {
		e.rate = 1
	}
	for _, t := range spec.Trees {
		e.trees = append(e.trees, append([]nodeSpec(nil), t.Nodes...))
	}
	return e
}

func (e *ensemble) eval(x [model.FeatureCount]float64) float64 {
	var sum float64
	for _, nodes := range e.trees {
		sum += walk(nodes, x)
	}
	if e.mean {
		sum /= float64(len(e.trees))
	}
	return e.base + e.rate*sum
}

func walk(nodes []nodeSpec, x [model.FeatureCount]float64) float64 {
	i := 0
	for !nodes[i].Leaf {
		if x[nodes[i].Feature] <= nodes[i].Threshold {
			i = nodes[i].Left
		} else {
			i = nodes[i].Right
		}
	}
	return nodes[i].Value
}
