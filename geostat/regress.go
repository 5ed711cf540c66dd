// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package geostat implements the geostatistical tools
// used to model the spatial structure of a rainfall field:
// simple linear regression,
// empirical variogram estimation,
// covariance model fitting,
// and kriging interpolation.
package geostat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// A Regression is an ordinary least squares fit
// of a response variable on a single explanatory variable.
type Regression struct {
	Slope     float64
	Intercept float64

	// R is the correlation coefficient of the fit.
	R float64

	// PValue is the two-sided p-value
	// for a test whose null hypothesis
	// is that the slope is zero.
	PValue float64
}

// Linregress fits a simple linear regression of y on x.
func Linregress(x, y []float64) (Regression, error) {
	if len(x) != len(y) {
		return Regression{}, fmt.Errorf("geostat: mismatched sample sizes %d and %d", len(x), len(y))
	}
	n := len(x)
	if n < 3 {
		return Regression{}, fmt.Errorf("geostat: regression requires at least 3 samples, got %d", n)
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	r := stat.Correlation(x, y, nil)

	// two-sided p-value from the t statistic of the slope
	var p float64
	if r2 := r * r; r2 >= 1 {
		p = 0
	} else {
		t := r * math.Sqrt(float64(n-2)/(1-r*r))
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
		p = 2 * dist.CDF(-math.Abs(t))
	}

	return Regression{
		Slope:     beta,
		Intercept: alpha,
		R:         r,
		PValue:    p,
	}, nil
}

// Predict returns the fitted value at x.
func (r Regression) Predict(x float64) float64 {
	return r.Intercept + r.Slope*x
}
