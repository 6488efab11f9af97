package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Classifier returns the probability of the positive ("good time") class.
type Classifier interface {
	PredictProba(features []float64) (float64, error)
	// NumFeatures is the input width the classifier was fitted on.
	NumFeatures() int
}

const (
	classifierGradientBoosting   = "gradient_boosting"
	classifierLogisticRegression = "logistic_regression"
)

var errFeatureCount = errors.New("ml: feature vector length mismatch")

// DecisionTree stores a fitted regression tree in flat array form.
// Leaves have left == right == -1.
type DecisionTree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

func (t DecisionTree) validate(features int) error {
	n := len(t.Value)
	if n == 0 {
		return errors.New("tree has no nodes")
	}
	if len(t.ChildrenLeft) != n || len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n {
		return errors.New("tree arrays have inconsistent lengths")
	}
	for i := 0; i < n; i++ {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == -1 && right == -1 {
			continue
		}
		// children always follow their parent, which rules out cycles
		if left <= i || right <= i || left >= n || right >= n {
			return fmt.Errorf("node %d has invalid children (%d, %d)", i, left, right)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= features {
			return fmt.Errorf("node %d splits on unknown feature %d", i, t.Feature[i])
		}
	}
	return nil
}

func (t DecisionTree) predict(x []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

// GradientBoosting is a binary log-loss boosted tree ensemble.
type GradientBoosting struct {
	NFeatures    int            `json:"n_features"`
	InitScore    float64        `json:"init_score"`
	LearningRate float64        `json:"learning_rate"`
	Trees        []DecisionTree `json:"trees"`
}

// PredictProba implements Classifier.
func (g *GradientBoosting) PredictProba(x []float64) (float64, error) {
	if len(x) != g.NFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", errFeatureCount, len(x), g.NFeatures)
	}
	raw := g.InitScore
	for _, tree := range g.Trees {
		raw += g.LearningRate * tree.predict(x)
	}
	return sigmoid(raw), nil
}

// NumFeatures implements Classifier.
func (g *GradientBoosting) NumFeatures() int { return g.NFeatures }

func (g *GradientBoosting) validate() error {
	if g.NFeatures <= 0 {
		return errors.New("n_features must be positive")
	}
	if g.LearningRate <= 0 {
		return errors.New("learning_rate must be positive")
	}
	if len(g.Trees) == 0 {
		return errors.New("ensemble has no trees")
	}
	for i, tree := range g.Trees {
		if err := tree.validate(g.NFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// LogisticRegression is a linear model over the scaled feature vector.
type LogisticRegression struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// PredictProba implements Classifier.
func (l *LogisticRegression) PredictProba(x []float64) (float64, error) {
	if len(x) != len(l.Coefficients) {
		return 0, fmt.Errorf("%w: got %d, want %d", errFeatureCount, len(x), len(l.Coefficients))
	}
	z := l.Intercept
	for i, coef := range l.Coefficients {
		z += coef * x[i]
	}
	return sigmoid(z), nil
}

// NumFeatures implements Classifier.
func (l *LogisticRegression) NumFeatures() int { return len(l.Coefficients) }

func (l *LogisticRegression) validate() error {
	if len(l.Coefficients) == 0 {
		return errors.New("coefficients are required")
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

type classifierEnvelope struct {
	Type  string          `json:"type"`
	Model json.RawMessage `json:"model"`
}

// DecodeClassifier parses a serialized classifier artifact.
func DecodeClassifier(data []byte) (Classifier, error) {
	var env classifierEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode classifier envelope: %w", err)
	}
	if len(env.Model) == 0 {
		return nil, errors.New("classifier model payload is empty")
	}
	switch env.Type {
	case classifierGradientBoosting:
		var model GradientBoosting
		if err := json.Unmarshal(env.Model, &model); err != nil {
			return nil, fmt.Errorf("decode gradient boosting model: %w", err)
		}
		if err := model.validate(); err != nil {
			return nil, fmt.Errorf("gradient boosting model: %w", err)
		}
		return &model, nil
	case classifierLogisticRegression:
		var model LogisticRegression
		if err := json.Unmarshal(env.Model, &model); err != nil {
			return nil, fmt.Errorf("decode logistic regression model: %w", err)
		}
		if err := model.validate(); err != nil {
			return nil, fmt.Errorf("logistic regression model: %w", err)
		}
		return &model, nil
	default:
		return nil, fmt.Errorf("unsupported classifier type %q", env.Type)
	}
}
