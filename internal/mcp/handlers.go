package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/jaggdy/internal/belief"
	"github.com/nvandessel/jaggdy/internal/constants"
	"github.com/nvandessel/jaggdy/internal/logic"
	"github.com/nvandessel/jaggdy/internal/markov"
	"github.com/nvandessel/jaggdy/internal/ratelimit"
	"github.com/nvandessel/jaggdy/internal/sanitize"
	"github.com/nvandessel/jaggdy/internal/scenario"
	"github.com/nvandessel/jaggdy/internal/simulation"
)

// errNoScenario is returned when a tool call names neither a built-in
// scenario nor an inline definition.
var errNoScenario = errors.New("scenario or definition is required")

// registerTools registers all jaggdy MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolScenarios,
		Description: "List the built-in belief-graph scenarios",
	}, s.handleJaggdyScenarios)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolModels,
		Description: "Enumerate the interpretations of an agenda that satisfy its integrity constraints",
	}, s.handleJaggdyModels)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolCandidates,
		Description: "Show the models each agent may adopt on the next update (minimum total Hamming distance to the agents it listens to)",
	}, s.handleJaggdyCandidates)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolSimulate,
		Description: "Run the synchronous belief update with random tie-breaking and report final belief profiles",
	}, s.handleJaggdySimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolChain,
		Description: "Build the Markov chain over belief profiles and report long-run outcomes from a start profile",
	}, s.handleJaggdyChain)
}

// resolveScenario returns the named built-in, or the inline definition.
func resolveScenario(name string, def *scenario.Scenario) (*scenario.Scenario, error) {
	if name != "" {
		return scenario.Builtin(name)
	}
	if def == nil {
		return nil, errNoScenario
	}
	sc := *def
	sc.Name = sanitize.Name(sc.Name)
	sc.Description = sanitize.Description(sc.Description)
	if sc.Name == "" {
		sc.Name = "inline"
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Server) buildGraph(name string, def *scenario.Scenario) (*scenario.Scenario, *belief.Graph, error) {
	sc, err := resolveScenario(name, def)
	if err != nil {
		return nil, nil, err
	}
	g, err := sc.Build(s.settings.AgendaOptions())
	if err != nil {
		return nil, nil, err
	}
	return sc, g, nil
}

func keys(interps []logic.Interpretation) []string {
	out := make([]string, len(interps))
	for i, m := range interps {
		out[i] = m.Key()
	}
	return out
}

func indexKeys(models []logic.Interpretation, indices []int) []string {
	out := make([]string, len(indices))
	for i, m := range indices {
		out[i] = models[m].Key()
	}
	return out
}

// handleJaggdyScenarios implements the jaggdy_scenarios tool.
func (s *Server) handleJaggdyScenarios(ctx context.Context, req *sdk.CallToolRequest, args JaggdyScenariosInput) (_ *sdk.CallToolResult, _ JaggdyScenariosOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolScenarios, start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolScenarios); err != nil {
		return nil, JaggdyScenariosOutput{}, err
	}

	names := scenario.BuiltinNames()
	out := JaggdyScenariosOutput{Scenarios: make([]ScenarioSummary, 0, len(names))}
	for _, name := range names {
		sc, err := scenario.Builtin(name)
		if err != nil {
			return nil, JaggdyScenariosOutput{}, err
		}
		models, err := sc.ModelSet(s.settings.AgendaOptions())
		if err != nil {
			return nil, JaggdyScenariosOutput{}, err
		}
		out.Scenarios = append(out.Scenarios, ScenarioSummary{
			Name:        sc.Name,
			Description: sc.Description,
			Agents:      len(sc.Agents),
			Models:      len(models),
		})
	}
	out.Count = len(out.Scenarios)
	return nil, out, nil
}

// handleJaggdyModels implements the jaggdy_models tool.
func (s *Server) handleJaggdyModels(ctx context.Context, req *sdk.CallToolRequest, args JaggdyModelsInput) (_ *sdk.CallToolResult, _ JaggdyModelsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolModels, start, retErr, sanitizeToolParams(map[string]any{
			"propositions": args.Propositions, "constraints": args.Constraints,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolModels); err != nil {
		return nil, JaggdyModelsOutput{}, err
	}

	sc := scenario.Scenario{Name: "inline", Propositions: args.Propositions, Constraints: args.Constraints}
	cm, err := sc.Agenda(s.settings.AgendaOptions())
	if err != nil {
		return nil, JaggdyModelsOutput{}, err
	}

	props := make([]string, 0, len(cm.Propositions()))
	for _, p := range cm.Propositions() {
		props = append(props, string(p))
	}
	models := keys(cm.Models())
	return nil, JaggdyModelsOutput{
		Propositions: props,
		Constraint:   cm.Constraint().String(),
		Models:       models,
		Count:        len(models),
	}, nil
}

// handleJaggdyCandidates implements the jaggdy_candidates tool.
func (s *Server) handleJaggdyCandidates(ctx context.Context, req *sdk.CallToolRequest, args JaggdyCandidatesInput) (_ *sdk.CallToolResult, _ JaggdyCandidatesOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolCandidates, start, retErr, sanitizeToolParams(map[string]any{
			"scenario": args.Scenario, "definition": args.Definition != nil, "agent": args.Agent,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolCandidates); err != nil {
		return nil, JaggdyCandidatesOutput{}, err
	}

	_, g, err := s.buildGraph(args.Scenario, args.Definition)
	if err != nil {
		return nil, JaggdyCandidatesOutput{}, err
	}

	agents := make([]int, 0, g.NumAgents())
	if args.Agent != nil {
		agents = append(agents, *args.Agent)
	} else {
		for a := 0; a < g.NumAgents(); a++ {
			agents = append(agents, a)
		}
	}

	out := JaggdyCandidatesOutput{Agents: make([]AgentCandidates, 0, len(agents))}
	for _, a := range agents {
		cands, err := g.CandidateModels(a)
		if err != nil {
			return nil, JaggdyCandidatesOutput{}, err
		}
		b, err := g.Belief(a)
		if err != nil {
			return nil, JaggdyCandidatesOutput{}, err
		}
		out.Agents = append(out.Agents, AgentCandidates{Agent: a, Belief: b.Key(), Candidates: keys(cands)})
	}
	return nil, out, nil
}

// handleJaggdySimulate implements the jaggdy_simulate tool.
func (s *Server) handleJaggdySimulate(ctx context.Context, req *sdk.CallToolRequest, args JaggdySimulateInput) (_ *sdk.CallToolResult, _ JaggdySimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolSimulate, start, retErr, sanitizeToolParams(map[string]any{
			"scenario": args.Scenario, "definition": args.Definition != nil, "runs": args.Runs,
			"max_iterations": args.MaxIterations, "seed": args.Seed,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolSimulate); err != nil {
		return nil, JaggdySimulateOutput{}, err
	}

	runs := args.Runs
	if runs == 0 {
		runs = 1
	}
	if runs < 0 || runs > constants.DefaultMCPMaxRuns {
		return nil, JaggdySimulateOutput{}, fmt.Errorf("runs must be between 1 and %d, got %d", constants.DefaultMCPMaxRuns, runs)
	}
	if args.MaxIterations < 0 || args.MaxIterations > constants.DefaultMCPMaxIterations {
		return nil, JaggdySimulateOutput{}, fmt.Errorf("max_iterations must be between 1 and %d, got %d", constants.DefaultMCPMaxIterations, args.MaxIterations)
	}

	sc, g, err := s.buildGraph(args.Scenario, args.Definition)
	if err != nil {
		return nil, JaggdySimulateOutput{}, err
	}
	models := g.Models()

	cfg := s.settings.SimulationOptions()
	if args.MaxIterations > 0 {
		cfg.MaxIterations = args.MaxIterations
	}
	if args.Seed != nil {
		cfg.Seed = *args.Seed
	}
	runner := simulation.NewRunner(cfg)
	runner.SetLogger(s.logger, s.decisions)

	if runs == 1 {
		res, err := runner.Run(ctx, g)
		if err != nil {
			return nil, JaggdySimulateOutput{}, err
		}
		out := JaggdySimulateOutput{
			Runs:     1,
			Outcomes: []SimulateOutcome{{Beliefs: indexKeys(models, res.Final), Count: 1, Fraction: 1}},
			Stable:   res.Stable,
		}
		for _, step := range res.Trajectory {
			out.Trajectory = append(out.Trajectory, indexKeys(models, step))
		}
		return nil, out, nil
	}

	agendaOpts := s.settings.AgendaOptions()
	freq, err := runner.EstimateOutcomes(ctx, func() (*belief.Graph, error) {
		return sc.Build(agendaOpts)
	}, runs)
	if err != nil {
		return nil, JaggdySimulateOutput{}, err
	}
	out := JaggdySimulateOutput{Runs: freq.Runs, Outcomes: make([]SimulateOutcome, 0, len(freq.Outcomes))}
	for _, f := range freq.Outcomes {
		out.Outcomes = append(out.Outcomes, SimulateOutcome{
			Beliefs:  indexKeys(models, f.State),
			Count:    f.Count,
			Fraction: f.Fraction,
		})
	}
	return nil, out, nil
}

// handleJaggdyChain implements the jaggdy_chain tool.
func (s *Server) handleJaggdyChain(ctx context.Context, req *sdk.CallToolRequest, args JaggdyChainInput) (_ *sdk.CallToolResult, _ JaggdyChainOutput, retErr error) {
	started := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolChain, started, retErr, sanitizeToolParams(map[string]any{
			"scenario": args.Scenario, "definition": args.Definition != nil,
			"start": args.Start, "horizon": args.Horizon,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolChain); err != nil {
		return nil, JaggdyChainOutput{}, err
	}
	if args.Horizon < 0 {
		return nil, JaggdyChainOutput{}, fmt.Errorf("horizon %d: %w", args.Horizon, markov.ErrInvalidHorizon)
	}

	_, g, err := s.buildGraph(args.Scenario, args.Definition)
	if err != nil {
		return nil, JaggdyChainOutput{}, err
	}

	opts := s.settings.ChainOptions()
	if args.Horizon > 0 {
		opts.Horizon = args.Horizon
	}
	chain, err := markov.New(g, opts)
	if err != nil {
		return nil, JaggdyChainOutput{}, err
	}
	chain.SetLogger(s.logger, s.decisions)

	from := chain.DefaultState()
	if len(args.Start) > 0 {
		beliefs := make([]logic.Interpretation, len(args.Start))
		for i, text := range args.Start {
			b, err := logic.ParseInterpretation(text)
			if err != nil {
				return nil, JaggdyChainOutput{}, fmt.Errorf("start belief %d: %w", i, err)
			}
			beliefs[i] = b
		}
		if from, err = chain.StateOf(beliefs); err != nil {
			return nil, JaggdyChainOutput{}, err
		}
	}

	outcomes, err := chain.ResultForState(from)
	if err != nil {
		return nil, JaggdyChainOutput{}, err
	}
	diag, err := chain.Diagnose()
	if err != nil {
		return nil, JaggdyChainOutput{}, err
	}
	converged, err := chain.Converged(opts.Horizon, s.settings.Chain.ZeroTolerance)
	if err != nil {
		return nil, JaggdyChainOutput{}, err
	}

	models := chain.Models()
	out := JaggdyChainOutput{
		States:    chain.NumStates(),
		Start:     indexKeys(models, from),
		Outcomes:  make([]ChainOutcome, 0, len(outcomes)),
		Transient: len(diag.Transient),
		Absorbing: len(diag.Absorbing),
		Periodic:  diag.Periodic(),
		Converged: converged,
	}
	for _, o := range outcomes {
		out.Outcomes = append(out.Outcomes, ChainOutcome{Beliefs: keys(o.Beliefs), Probability: o.Probability})
	}
	return nil, out, nil
}
