package ml

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Metrics are binary classification scores for the positive class.
type Metrics struct {
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
	ROCAUC    float64 `json:"roc_auc" yaml:"roc_auc"`
}

func (m Metrics) Map() map[string]float64 {
	return map[string]float64{
		"accuracy":  m.Accuracy,
		"precision": m.Precision,
		"recall":    m.Recall,
		"f1":        m.F1,
		"roc_auc":   m.ROCAUC,
	}
}

// Evaluate scores hard predictions and, when proba is non-nil, the ranking.
// Undefined ratios (no predicted or no actual positives) are reported as 0.
func Evaluate(yTrue, yPred []int, proba []float64) (Metrics, error) {
	if len(yTrue) == 0 {
		return Metrics{}, errors.New("evaluate: no rows")
	}
	if len(yTrue) != len(yPred) {
		return Metrics{}, fmt.Errorf("evaluate: %d labels but %d predictions", len(yTrue), len(yPred))
	}

	var tp, fp, fn, correct float64
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
		switch {
		case yPred[i] == 1 && yTrue[i] == 1:
			tp++
		case yPred[i] == 1:
			fp++
		case yTrue[i] == 1:
			fn++
		}
	}

	var m Metrics
	m.Accuracy = correct / float64(len(yTrue))
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	if proba != nil {
		auc, err := ROCAUC(yTrue, proba)
		if err != nil {
			return m, err
		}
		m.ROCAUC = auc
	}
	return m, nil
}

// ROCAUC is the area under the ROC curve of score against y.
func ROCAUC(y []int, score []float64) (float64, error) {
	if len(y) != len(score) {
		return 0, fmt.Errorf("roc auc: %d labels but %d scores", len(y), len(score))
	}
	order := make([]int, len(y))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return score[order[a]] < score[order[b]] })

	sorted := make([]float64, len(y))
	classes := make([]bool, len(y))
	var pos int
	for k, i := range order {
		sorted[k] = score[i]
		classes[k] = y[i] == 1
		if classes[k] {
			pos++
		}
	}
	if pos == 0 || pos == len(y) {
		return 0, errors.New("roc auc is undefined with a single class")
	}

	tpr, fpr, _ := stat.ROC(nil, sorted, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}
