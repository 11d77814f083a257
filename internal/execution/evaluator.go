package execution

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Messages produced by the evaluator.
const (
	MessageSwitchRequired  = "Compilation Error: Please use a switch statement as required."
	MessageDivisionByZero  = "Error: Division by zero"
	MessageInvalidOperator = "Error: Invalid operator"
	runtimeErrorPrefix     = "Runtime Error: "
	requiredConstruct      = "switch"
)

var numericPrefix = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// Result is the outcome of a single evaluation. An empty Error means the code ran.
type Result struct {
	Output  string        `json:"output"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// Failed reports whether the evaluation produced an error.
func (r Result) Failed() bool {
	return r.Error != ""
}

// Evaluator mocks compilation and execution of calculator submissions.
type Evaluator struct {
	now func() time.Time
}

// NewEvaluator builds an evaluator that measures elapsed wall-clock time.
func NewEvaluator() *Evaluator {
	return &Evaluator{now: time.Now}
}

// Evaluate runs code against a single stdin string.
func (e *Evaluator) Evaluate(code, input string) Result {
	return e.evaluateWith(func() Result {
		return evaluate(code, input)
	})
}

// evaluateWith times run and downgrades any panic into a runtime error result.
func (e *Evaluator) evaluateWith(run func() Result) (result Result) {
	start := e.now()
	defer func() {
		if r := recover(); r != nil {
			result = Result{Error: fmt.Sprintf("%s%v", runtimeErrorPrefix, r)}
		}
		result.Elapsed = e.now().Sub(start)
	}()

	return run()
}

func evaluate(code, input string) Result {
	req, ok := parseCalculatorRequest(input)
	if !ok {
		return Result{Output: input}
	}

	if !strings.Contains(code, requiredConstruct) {
		return Result{Error: MessageSwitchRequired}
	}

	return Result{Output: req.compute()}
}

type calculatorRequest struct {
	left     float64
	right    float64
	operator string
}

func parseCalculatorRequest(input string) (calculatorRequest, bool) {
	lines := strings.Split(strings.TrimSpace(input), "\n")

	switch {
	case len(lines) >= 3:
		return calculatorRequest{
			left:     parseNumber(lines[0]),
			right:    parseNumber(lines[1]),
			operator: strings.TrimSpace(lines[2]),
		}, true
	case len(lines) == 1 && strings.Contains(lines[0], " "):
		parts := strings.Split(lines[0], " ")
		return calculatorRequest{
			left:     parseNumber(partAt(parts, 0)),
			right:    parseNumber(partAt(parts, 1)),
			operator: partAt(parts, 2),
		}, true
	default:
		return calculatorRequest{}, false
	}
}

func (r calculatorRequest) compute() string {
	var value float64
	switch r.operator {
	case "+":
		value = r.left + r.right
	case "-":
		value = r.left - r.right
	case "*":
		value = r.left * r.right
	case "/":
		if r.right == 0 {
			return MessageDivisionByZero
		}
		value = r.left / r.right
	default:
		return MessageInvalidOperator
	}

	return formatNumber(value)
}

func partAt(parts []string, idx int) string {
	if idx < len(parts) {
		return parts[idx]
	}
	return ""
}

// parseNumber takes the longest numeric prefix and yields NaN when there is none.
func parseNumber(raw string) float64 {
	trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)
	match := numericPrefix.FindString(trimmed)
	if match == "" {
		return math.NaN()
	}

	unsigned := strings.TrimLeft(match, "+-")
	negative := strings.HasPrefix(match, "-")
	if unsigned == "Infinity" {
		if negative {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		// ParseFloat reports overflow with a usable ±Inf value.
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return value
		}
		return math.NaN()
	}
	return value
}

func formatNumber(value float64) string {
	switch {
	case math.IsNaN(value):
		return "NaN"
	case math.IsInf(value, 1):
		return "Infinity"
	case math.IsInf(value, -1):
		return "-Infinity"
	case value == 0:
		return "0"
	}

	if value == math.Trunc(value) {
		if math.Abs(value) >= 1e21 {
			return strconv.FormatFloat(value, 'g', -1, 64)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	}

	return toFixed2(value)
}

// toFixed2 rounds to two decimals from the exact binary value, ties away from zero.
func toFixed2(value float64) string {
	scaled := new(big.Float).SetPrec(512).SetFloat64(math.Abs(value))
	scaled.Mul(scaled, new(big.Float).SetPrec(512).SetInt64(100))

	whole, _ := scaled.Int(nil)
	fraction := new(big.Float).SetPrec(512).Sub(scaled, new(big.Float).SetPrec(512).SetInt(whole))
	if fraction.Cmp(big.NewFloat(0.5)) >= 0 {
		whole.Add(whole, big.NewInt(1))
	}

	digits := whole.String()
	for len(digits) < 3 {
		digits = "0" + digits
	}

	formatted := digits[:len(digits)-2] + "." + digits[len(digits)-2:]
	if value < 0 {
		return "-" + formatted
	}
	return formatted
}
