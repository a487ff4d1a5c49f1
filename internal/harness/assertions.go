package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/store"
	"github.com/roach88/fundledger/internal/testutil"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s by %s: %s %s\n", event.Seq, event.Command, event.Signer, event.Outcome, event.Code)
		}
	}

	return buf.String()
}

// assertTraceOrder checks if commands appear in the specified order.
// Commands don't need to be consecutive (intervening commands are allowed),
// and a repeated command matches its next occurrence.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, want := range assertion.Commands {
		found := false
		for pos < len(trace) {
			event := trace[pos]
			pos++
			if event.Command == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("commands in order: %v", assertion.Commands),
				Actual:   fmt.Sprintf("%s not found after position %d", want, pos),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks if the command appears exactly the specified
// number of times, optionally counting only one outcome.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Command != assertion.Command {
			continue
		}
		if assertion.Outcome != "" && event.Outcome != assertion.Outcome {
			continue
		}
		count++
	}

	if count != assertion.Count {
		what := assertion.Command
		if assertion.Outcome != "" {
			what += " with outcome " + assertion.Outcome
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState decodes the target cell and validates expected values
// using subset semantics. The pseudo-field "kind" matches the decoded record
// kind. An expected string of the form "@name" stands for the identity of
// the key named name.
func (h *Harness) assertFinalState(ctx context.Context, assertion Assertion) error {
	addr, err := h.resolveTarget(assertion.Target)
	if err != nil {
		return err
	}

	view, err := h.host.View(ctx, addr)
	if errors.Is(err, store.ErrCellNotFound) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("cell %s to exist", assertion.Target),
			Actual:   "cell not found",
		}
	}
	if err != nil {
		return fmt.Errorf("view %s: %w", assertion.Target, err)
	}

	actual, err := recordFields(view.Record)
	if err != nil {
		return fmt.Errorf("decode %s: %w", assertion.Target, err)
	}
	actual["kind"] = view.Kind

	// Sort keys so the first reported mismatch is stable.
	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expected := resolveExpected(assertion.Expect[key])
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s field %q to exist", assertion.Target, key),
				Actual:   fmt.Sprintf("fields present: %v", fieldNames(actual)),
			}
		}
		if !stateValuesEqual(expected, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s field %q = %v", assertion.Target, key, expected),
				Actual:   fmt.Sprintf("field %q = %v", key, actualValue),
			}
		}
	}
	return nil
}

// resolveTarget maps a final_state target to its cell address.
func (h *Harness) resolveTarget(s string) (ident.Identity, error) {
	t, err := parseTarget(s)
	if err != nil {
		return ident.Zero, err
	}
	proc := h.host.Processor()

	switch t.kind {
	case "holder":
		return HolderAddress(t.holder), nil
	case "organization":
		return proc.OrganizationAddress(testutil.Identity(t.owner), t.name)
	default:
		org, err := proc.OrganizationAddress(testutil.Identity(t.owner), t.name)
		if err != nil {
			return ident.Zero, err
		}
		return proc.InvestmentAddress(testutil.Identity(t.investor), org)
	}
}

// recordFields flattens a decoded record into its JSON field map. Numbers
// stay json.Number so large balances compare exactly.
func recordFields(record any) (map[string]any, error) {
	fields := map[string]any{}
	if record == nil {
		return fields, nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func resolveExpected(v any) any {
	if s, ok := v.(string); ok && strings.HasPrefix(s, "@") && len(s) > 1 {
		return testutil.Identity(s[1:]).String()
	}
	return v
}

// stateValuesEqual compares a YAML-decoded expected value with a
// JSON-decoded actual value. Numbers compare by their decimal text.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	switch exp := expected.(type) {
	case string:
		act, ok := actual.(string)
		return ok && exp == act
	case bool:
		act, ok := actual.(bool)
		return ok && exp == act
	case int, int64, uint64, float64:
		act, ok := actual.(json.Number)
		return ok && fmt.Sprint(exp) == act.String()
	}
	return fmt.Sprint(expected) == fmt.Sprint(actual)
}

func fieldNames(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// evaluate evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func (h *Harness) evaluate(ctx context.Context, result *Result, assertions []Assertion) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			err = h.assertFinalState(ctx, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
