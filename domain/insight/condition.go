package insight

import (
	"fmt"
	"math"
)

// Operator is a comparison applied to one metric value
type Operator string

const (
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpEquals      Operator = "equals"
	OpBetween     Operator = "between"
)

// EqualsEpsilon is the tolerance of the equals operator
const EqualsEpsilon = 0.01

// Condition is a single threshold test on a metric. Weight is reporting
// metadata and never changes the outcome of Evaluate.
type Condition struct {
	Metric    MetricName `json:"metric" yaml:"metric"`
	Operator  Operator   `json:"operator" yaml:"operator"`
	Threshold float64    `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Min       float64    `json:"min,omitempty" yaml:"min,omitempty"`
	Max       float64    `json:"max,omitempty" yaml:"max,omitempty"`
	Weight    float64    `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Evaluate applies the condition to a value. between is inclusive.
func (c Condition) Evaluate(v float64) bool {
	switch c.Operator {
	case OpGreaterThan:
		return v > c.Threshold
	case OpLessThan:
		return v < c.Threshold
	case OpEquals:
		return math.Abs(v-c.Threshold) <= EqualsEpsilon
	case OpBetween:
		return v >= c.Min && v <= c.Max
	}
	return false
}

// Validate checks the operator and range
func (c Condition) Validate() error {
	if c.Metric == "" {
		return fmt.Errorf("condition has no metric")
	}
	switch c.Operator {
	case OpGreaterThan, OpLessThan, OpEquals:
		return nil
	case OpBetween:
		if c.Min > c.Max {
			return fmt.Errorf("condition on %s: min %.2f exceeds max %.2f", c.Metric, c.Min, c.Max)
		}
		return nil
	}
	return fmt.Errorf("condition on %s: unknown operator %q", c.Metric, c.Operator)
}

// String renders the condition for reports, e.g. "focus_time > 120"
func (c Condition) String() string {
	switch c.Operator {
	case OpGreaterThan:
		return fmt.Sprintf("%s > %g", c.Metric, c.Threshold)
	case OpLessThan:
		return fmt.Sprintf("%s < %g", c.Metric, c.Threshold)
	case OpEquals:
		return fmt.Sprintf("%s = %g", c.Metric, c.Threshold)
	case OpBetween:
		return fmt.Sprintf("%g <= %s <= %g", c.Min, c.Metric, c.Max)
	}
	return fmt.Sprintf("%s ? %g", c.Metric, c.Threshold)
}
