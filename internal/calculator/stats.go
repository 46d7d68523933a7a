package calculator

import "math"

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stddev returns the population standard deviation (divides by N), 0 for an empty slice.
func Stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	sq := make([]float64, len(values))
	for i, v := range values {
		sq[i] = (v - m) * (v - m)
	}
	return math.Sqrt(Mean(sq))
}

// Tail returns the trailing min(len(values), n) elements without copying.
func Tail(values []float64, n int) []float64 {
	start := len(values) - n
	if start < 0 {
		start = 0
	}
	return values[start:]
}

// LinearRegressionSlope fits y against x = 1..len(y) by ordinary least squares.
// Fewer than two points, or a zero denominator, yield 0.
func LinearRegressionSlope(y []float64) float64 {
	n := len(y)
	if n < 2 {
		return 0
	}
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i + 1)
	}
	xMean := Mean(x)
	yMean := Mean(y)
	var num, den float64
	for i, xi := range x {
		num += (xi - xMean) * (y[i] - yMean)
		den += (xi - xMean) * (xi - xMean)
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// DailyReturns computes simple returns, skipping steps whose previous price is not positive.
func DailyReturns(prices []float64) []float64 {
	var returns []float64
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev > 0 {
			returns = append(returns, (prices[i]-prev)/prev)
		}
	}
	return returns
}
