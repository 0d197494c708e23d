package classify

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// logisticRegression is a multinomial (softmax) linear classifier
type logisticRegression struct {
	weights [][]float64 // classes x features
	bias    []float64   // classes
}

// fitResult reports how the optimizer finished
type fitResult struct {
	iterations int
	loss       float64
	status     string
}

// fitLogistic minimizes the L2-regularized multinomial log loss with L-BFGS:
//
//	0.5*||W||^2 + C * sum_i [ logsumexp(W x_i + b) - (W x_i + b)[y_i] ]
//
// The bias is not regularized.
func fitLogistic(xs []sparseVector, ys []int, classes, features int, c float64, maxIter int) (*logisticRegression, fitResult, error) {
	if classes == 0 || len(xs) == 0 {
		return nil, fitResult{}, ErrEmptyTrainingSet
	}
	if c <= 0 {
		c = 1.0
	}
	if maxIter <= 0 {
		maxIter = 200
	}

	stride := features + 1
	objective := func(theta, grad []float64) float64 {
		if grad != nil {
			for i := range grad {
				grad[i] = 0
			}
		}

		var loss float64
		for k := 0; k < classes; k++ {
			w := theta[k*stride : k*stride+features]
			for j, wj := range w {
				loss += 0.5 * wj * wj
				if grad != nil {
					grad[k*stride+j] = wj
				}
			}
		}

		scores := make([]float64, classes)
		for i, x := range xs {
			for k := 0; k < classes; k++ {
				scores[k] = linear(theta[k*stride:(k+1)*stride], x, features)
			}
			lse := floats.LogSumExp(scores)
			loss += c * (lse - scores[ys[i]])

			if grad == nil {
				continue
			}
			for k := 0; k < classes; k++ {
				delta := math.Exp(scores[k] - lse)
				if k == ys[i] {
					delta -= 1
				}
				delta *= c
				base := k * stride
				for n, j := range x.idx {
					grad[base+j] += delta * x.val[n]
				}
				grad[base+features] += delta
			}
		}
		return loss
	}

	problem := optimize.Problem{
		Func: func(theta []float64) float64 { return objective(theta, nil) },
		Grad: func(grad, theta []float64) { objective(theta, grad) },
	}
	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: 1e-5,
	}

	init := make([]float64, classes*stride)
	result, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
	if result == nil {
		return nil, fitResult{}, fmt.Errorf("optimize: %w", err)
	}
	// A line-search stall still leaves the best location found; keep it.

	lr := &logisticRegression{
		weights: make([][]float64, classes),
		bias:    make([]float64, classes),
	}
	for k := 0; k < classes; k++ {
		row := make([]float64, features)
		copy(row, result.X[k*stride:k*stride+features])
		lr.weights[k] = row
		lr.bias[k] = result.X[k*stride+features]
	}

	return lr, fitResult{
		iterations: result.Stats.MajorIterations,
		loss:       result.F,
		status:     result.Status.String(),
	}, nil
}

// linear computes w.x + b for one class row laid out as [w..., b]
func linear(row []float64, x sparseVector, features int) float64 {
	z := row[features]
	for n, j := range x.idx {
		z += row[j] * x.val[n]
	}
	return z
}

// predict returns the softmax probability of every class
func (lr *logisticRegression) predict(x sparseVector) []float64 {
	scores := make([]float64, len(lr.weights))
	for k, w := range lr.weights {
		z := lr.bias[k]
		for n, j := range x.idx {
			z += w[j] * x.val[n]
		}
		scores[k] = z
	}

	lse := floats.LogSumExp(scores)
	for k := range scores {
		scores[k] = math.Exp(scores[k] - lse)
	}
	return scores
}
