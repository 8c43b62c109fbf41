package mcp

import "github.com/nvandessel/jaggdy/internal/scenario"

// JaggdyScenariosInput defines the input for the jaggdy_scenarios tool.
type JaggdyScenariosInput struct{}

// JaggdyScenariosOutput defines the output for the jaggdy_scenarios tool.
type JaggdyScenariosOutput struct {
	Scenarios []ScenarioSummary `json:"scenarios" jsonschema:"Built-in scenarios"`
	Count     int               `json:"count" jsonschema:"Number of scenarios"`
}

// ScenarioSummary describes one built-in scenario.
type ScenarioSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Agents      int    `json:"agents"`
	Models      int    `json:"models"`
}

// JaggdyModelsInput defines the input for the jaggdy_models tool.
type JaggdyModelsInput struct {
	Propositions []string `json:"propositions" jsonschema:"Proposition letters in order, e.g. [\"p\",\"q\",\"r\"]"`
	Constraints  []string `json:"constraints,omitempty" jsonschema:"Integrity constraints in prefix notation, e.g. \"iff r implies p q\""`
}

// JaggdyModelsOutput defines the output for the jaggdy_models tool.
type JaggdyModelsOutput struct {
	Propositions []string `json:"propositions" jsonschema:"Proposition order of each model"`
	Constraint   string   `json:"constraint" jsonschema:"Conjunction of the constraints in prefix notation"`
	Models       []string `json:"models" jsonschema:"Satisfying interpretations as bit strings"`
	Count        int      `json:"count" jsonschema:"Number of models"`
}

// JaggdyCandidatesInput defines the input for the jaggdy_candidates tool.
type JaggdyCandidatesInput struct {
	Scenario   string             `json:"scenario,omitempty" jsonschema:"Name of a built-in scenario (see jaggdy_scenarios)"`
	Definition *scenario.Scenario `json:"definition,omitempty" jsonschema:"Inline scenario definition, used when scenario is empty"`
	Agent      *int               `json:"agent,omitempty" jsonschema:"Only report this agent (default: all agents)"`
}

// JaggdyCandidatesOutput defines the output for the jaggdy_candidates tool.
type JaggdyCandidatesOutput struct {
	Agents []AgentCandidates `json:"agents" jsonschema:"Models each agent may adopt on the next update"`
}

// AgentCandidates lists the minimum-distance models for one agent.
type AgentCandidates struct {
	Agent      int      `json:"agent"`
	Belief     string   `json:"belief"`
	Candidates []string `json:"candidates"`
}

// JaggdySimulateInput defines the input for the jaggdy_simulate tool.
type JaggdySimulateInput struct {
	Scenario      string             `json:"scenario,omitempty" jsonschema:"Name of a built-in scenario (see jaggdy_scenarios)"`
	Definition    *scenario.Scenario `json:"definition,omitempty" jsonschema:"Inline scenario definition, used when scenario is empty"`
	Runs          int                `json:"runs,omitempty" jsonschema:"Number of independent runs (default: 1)"`
	MaxIterations int                `json:"max_iterations,omitempty" jsonschema:"Update cap per run (default from config)"`
	Seed          *uint64            `json:"seed,omitempty" jsonschema:"Random seed for tie-breaking (default from config)"`
}

// JaggdySimulateOutput defines the output for the jaggdy_simulate tool.
type JaggdySimulateOutput struct {
	Runs     int               `json:"runs" jsonschema:"Number of runs performed"`
	Outcomes []SimulateOutcome `json:"outcomes" jsonschema:"Final belief profiles, most frequent first"`
	// Trajectory is set for single runs only.
	Trajectory [][]string `json:"trajectory,omitempty" jsonschema:"Belief profile after each update (single runs only)"`
	Stable     bool       `json:"stable,omitempty" jsonschema:"Whether the single run reached a fixed point"`
}

// SimulateOutcome is one observed final profile.
type SimulateOutcome struct {
	Beliefs  []string `json:"beliefs"`
	Count    int      `json:"count"`
	Fraction float64  `json:"fraction"`
}

// JaggdyChainInput defines the input for the jaggdy_chain tool.
type JaggdyChainInput struct {
	Scenario   string             `json:"scenario,omitempty" jsonschema:"Name of a built-in scenario (see jaggdy_scenarios)"`
	Definition *scenario.Scenario `json:"definition,omitempty" jsonschema:"Inline scenario definition, used when scenario is empty"`
	Start      []string           `json:"start,omitempty" jsonschema:"Starting belief per agent (default: the scenario's beliefs)"`
	Horizon    int                `json:"horizon,omitempty" jsonschema:"Matrix power used for the long-run distribution (default from config)"`
}

// JaggdyChainOutput defines the output for the jaggdy_chain tool.
type JaggdyChainOutput struct {
	States    int            `json:"states" jsonschema:"Size of the state space"`
	Start     []string       `json:"start" jsonschema:"Starting belief profile"`
	Outcomes  []ChainOutcome `json:"outcomes" jsonschema:"Long-run profiles with nonzero probability, most likely first"`
	Transient int            `json:"transient" jsonschema:"Number of transient states"`
	Absorbing int            `json:"absorbing" jsonschema:"Number of absorbing states"`
	Periodic  bool           `json:"periodic" jsonschema:"Whether a recurrent class is periodic"`
	Converged bool           `json:"converged" jsonschema:"Whether the matrix power had settled at the horizon"`
}

// ChainOutcome is one long-run profile.
type ChainOutcome struct {
	Beliefs     []string `json:"beliefs"`
	Probability float64  `json:"probability"`
}
