package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fundledger/internal/processor"
	"github.com/roach88/fundledger/internal/store"
	"github.com/roach88/fundledger/internal/treasury"
)

// Scenario defines a ledger conformance scenario.
// Scenarios seed holders, submit a flow of signed commands against a fresh
// ledger and assert on the resulting trace and final cell state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Holders are created and funded before the flow. They record no
	// executions.
	Holders []Holder `yaml:"holders"`

	// Treasury maps tiers to holder names. When empty the built-in
	// allow-list applies.
	Treasury map[string]string `yaml:"treasury,omitempty"`

	// Flow contains the commands to submit, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	// Supported types: trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// Holder is a token holder created before the flow.
type Holder struct {
	// Name labels the holder. Its address is derived from the name.
	Name string `yaml:"name"`

	// Authority is the key name that controls the holder.
	Authority string `yaml:"authority"`

	Balance uint64 `yaml:"balance,omitempty"`
}

// FlowStep is one signed command. Which fields apply depends on Command.
type FlowStep struct {
	// Command is create_organization, invest, disburse or transfer.
	Command string `yaml:"command"`

	// Signer is the key name that signs the transaction. For invest it is
	// the investor; for create_organization the owner.
	Signer string `yaml:"signer"`

	// Unsigned submits without the signer's signature.
	Unsigned bool `yaml:"unsigned,omitempty"`

	Name       string `yaml:"name,omitempty"`
	GroupingID string `yaml:"grouping_id,omitempty"`
	Quorum     uint8  `yaml:"quorum,omitempty"`

	// Owner is the owner text written into a new organization. It defaults
	// to the signer's identity.
	Owner string `yaml:"owner,omitempty"`

	// Organization references an organization as "<owner>/<name>".
	Organization string `yaml:"organization,omitempty"`

	Amount uint64 `yaml:"amount,omitempty"`
	Tier   string `yaml:"tier,omitempty"`

	// Source and Destination are holder names.
	Source      string `yaml:"source,omitempty"`
	Destination string `yaml:"destination,omitempty"`

	// Expect specifies the expected outcome. If nil the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected execution outcome.
type ExpectClause struct {
	// Outcome is "ok" or "error".
	Outcome string `yaml:"outcome"`

	// Code is the expected fault code when Outcome is "error".
	Code string `yaml:"code,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_order": Check commands appear in order
	// - "trace_count": Check a command appears exactly N times
	// - "final_state": Decode a cell and verify expected fields
	Type string `yaml:"type"`

	// Command is the command name (used by trace_count).
	Command string `yaml:"command,omitempty"`

	// Outcome optionally narrows trace_count to one outcome.
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Commands is the expected command order (used by trace_order).
	Commands []string `yaml:"commands,omitempty"`

	// Target names the cell to inspect (used by final_state):
	//   holder/<name>
	//   organization/<owner>/<name>
	//   investment/<investor>/<owner>/<name>
	Target string `yaml:"target,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated. The key "kind"
	// matches the decoded record kind.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceOrder = "trace_order"
	AssertTraceCount = "trace_count"
	AssertFinalState = "final_state"
)

// commandTransfer submits directly to the value-transfer service.
const commandTransfer = "transfer"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// name a step or assertion uses is defined.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	holders := make(map[string]bool, len(s.Holders))
	for i, h := range s.Holders {
		if h.Name == "" || h.Authority == "" {
			return fmt.Errorf("holders[%d]: name and authority are required", i)
		}
		if holders[h.Name] {
			return fmt.Errorf("holders[%d]: duplicate holder %q", i, h.Name)
		}
		holders[h.Name] = true
	}

	for tier, holder := range s.Treasury {
		if _, err := treasury.ParseTier(tier); err != nil {
			return fmt.Errorf("treasury: %w", err)
		}
		if !holders[holder] {
			return fmt.Errorf("treasury.%s: unknown holder %q", tier, holder)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(step, holders); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step FlowStep, holders map[string]bool) error {
	if step.Signer == "" {
		return fmt.Errorf("signer is required")
	}
	if step.Expect != nil {
		switch step.Expect.Outcome {
		case store.OutcomeOK, store.OutcomeError:
		default:
			return fmt.Errorf("expect.outcome must be %q or %q", store.OutcomeOK, store.OutcomeError)
		}
	}

	requireHolder := func(field, name string) error {
		if name == "" {
			return fmt.Errorf("%s is required for %s", field, step.Command)
		}
		if !holders[name] {
			return fmt.Errorf("%s: unknown holder %q", field, name)
		}
		return nil
	}

	switch step.Command {
	case processor.CommandCreateOrganization:
		if step.Name == "" {
			return fmt.Errorf("name is required for %s", step.Command)
		}
	case processor.CommandInvest:
		if _, _, err := splitOrganization(step.Organization); err != nil {
			return err
		}
		if err := requireHolder("source", step.Source); err != nil {
			return err
		}
		return requireHolder("destination", step.Destination)
	case processor.CommandDisburse:
		if step.Tier == "" {
			return fmt.Errorf("tier is required for %s", step.Command)
		}
		if step.Source != "" && !holders[step.Source] {
			return fmt.Errorf("source: unknown holder %q", step.Source)
		}
		return requireHolder("destination", step.Destination)
	case commandTransfer:
		if err := requireHolder("source", step.Source); err != nil {
			return err
		}
		return requireHolder("destination", step.Destination)
	default:
		return fmt.Errorf("unknown command %q", step.Command)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceOrder:
		if len(a.Commands) == 0 {
			return fmt.Errorf("assertions[%d]: commands list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Command == "" {
			return fmt.Errorf("assertions[%d]: command is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if _, err := parseTarget(a.Target); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// splitOrganization splits an "<owner>/<name>" reference.
func splitOrganization(ref string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(ref, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("organization %q must be <owner>/<name>", ref)
	}
	return owner, name, nil
}

// target is a parsed final_state target.
type target struct {
	kind     string // "holder", "organization" or "investment"
	holder   string
	investor string
	owner    string
	name     string
}

func parseTarget(s string) (target, error) {
	parts := strings.Split(s, "/")
	switch {
	case len(parts) == 2 && parts[0] == "holder" && parts[1] != "":
		return target{kind: "holder", holder: parts[1]}, nil
	case len(parts) == 3 && parts[0] == "organization" && parts[1] != "" && parts[2] != "":
		return target{kind: "organization", owner: parts[1], name: parts[2]}, nil
	case len(parts) == 4 && parts[0] == "investment" && parts[1] != "" && parts[2] != "" && parts[3] != "":
		return target{kind: "investment", investor: parts[1], owner: parts[2], name: parts[3]}, nil
	default:
		return target{}, fmt.Errorf("target %q must be holder/<name>, organization/<owner>/<name> or investment/<investor>/<owner>/<name>", s)
	}
}
