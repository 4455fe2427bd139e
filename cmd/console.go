package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/layout"
	"github.com/mmbarrys/navigara/internal/orgraph"
	"github.com/mmbarrys/navigara/internal/scoring"
	"github.com/mmbarrys/navigara/internal/workflow"
)

const (
	PromptShowGraph    = "Show graph"
	PromptSwitchMode   = "Switch mode"
	PromptAddMember    = "Add a team member"
	PromptEditMember   = "Edit a team member"
	PromptRemoveMember = "Remove a team member"
	PromptProcess      = "Process manual roster"
	PromptDraftFiles   = "Read editor draft from files"
	PromptLoadCustom   = "Load custom graph"
	PromptSimulate     = "Run a what-if simulation"
	PromptScore        = "Score a candidate document"
	PromptReport       = "Show last simulation report"
	PromptSaveDefault  = "Save graph as default"
	PromptExit         = "Exit"
	PromptBack         = "back"
)

var errExit = errors.New("exit requested")

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Build, load and simulate organization graphs interactively",
	Run: func(_ *cobra.Command, _ []string) {
		console()
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func console() {
	ctx := context.Background()

	logger, config := bootstrap("console")

	graphs, err := newGraphProvider(config.Provider, logger)
	if err != nil {
		logger.Fatal("creating a graph provider", zap.Error(err))
	}

	scorer, err := newScorer(ctx, config.Scoring, logger)
	if err != nil {
		logger.Warn("candidate scoring is disabled", zap.Error(err))
	}

	machine := workflow.New(orgraph.Candidate{
		ID:   config.Candidate.ID,
		Name: config.Candidate.Name,
	}, graphs, logger)

	// The session is still usable with the manual builder when the default graph is unavailable.
	if _, err := machine.Bootstrap(ctx); err != nil {
		logger.Warn("loading the default graph", zap.Error(err))
	}

	for {
		menu := promptui.Select{
			Label: fmt.Sprintf("Mode: %s", machine.Mode()),
			Items: menuItems(machine.Mode(), scorer != nil, machine.CanSave()),
			Size:  12,
		}

		_, action, err := menu.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleConsoleAction(ctx, action, machine, scorer, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Error("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func menuItems(mode workflow.Mode, canScore, canSave bool) []string {
	items := []string{PromptShowGraph, PromptSwitchMode}

	switch mode {
	case workflow.ModeManualSetup:
		items = append(items, PromptAddMember, PromptEditMember, PromptRemoveMember, PromptProcess)
	case workflow.ModeJSONEditor:
		items = append(items, PromptDraftFiles, PromptLoadCustom)
	case workflow.ModeVisualization:
		items = append(items, PromptSimulate, PromptReport)
		if canSave {
			items = append(items, PromptSaveDefault)
		}
	}

	if canScore {
		items = append(items, PromptScore)
	}

	return append(items, PromptExit)
}

func handleConsoleAction(ctx context.Context, action string, m *workflow.Machine, scorer scoring.Provider, logger *zap.Logger) error {
	switch action {
	case PromptShowGraph:
		printSnapshot(m.Snapshot())
		return nil
	case PromptSwitchMode:
		return switchMode(m)
	case PromptAddMember:
		e, err := askMember(orgraph.Employee{PotentialScore: orgraph.DefaultScore, PerformanceScore: orgraph.DefaultScore})
		if err != nil {
			return err
		}
		stored, err := m.AddManualMember(e)
		if err != nil {
			return err
		}
		logger.Info("team member added", zap.String("employee_id", stored.ID))
		return nil
	case PromptEditMember:
		index, err := selectRow(m.ManualRoster())
		if err != nil || index < 0 {
			return err
		}
		e, err := askMember(m.ManualRoster()[index])
		if err != nil {
			return err
		}
		return m.UpdateManualMember(index, e)
	case PromptRemoveMember:
		index, err := selectRow(m.ManualRoster())
		if err != nil || index < 0 {
			return err
		}
		return m.RemoveManualMember(index)
	case PromptProcess:
		snap, err := m.ProcessManual()
		if err != nil {
			return err
		}
		printSnapshot(snap)
		return nil
	case PromptDraftFiles:
		return readDraftFiles(m)
	case PromptLoadCustom:
		snap, err := m.LoadCustomGraph()
		if err != nil {
			return err
		}
		printSnapshot(snap)
		return nil
	case PromptSimulate:
		choices := m.Choices()
		employeeID, err := selectEmployee(choices.Employees)
		if err != nil {
			return err
		}
		unit, err := selectUnit(choices.Units)
		if err != nil {
			return err
		}
		outcome, err := m.RunSimulation(employeeID, unit)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, outcome.Report)
		return nil
	case PromptReport:
		report := m.Report()
		if report == "" {
			report = "No simulation has been run on the current graph."
		}
		fmt.Fprintln(os.Stdout, report)
		return nil
	case PromptSaveDefault:
		ds, err := m.SaveAsDefault(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Saved %d employees and %d collaborations as the default graph.\n", len(ds.Employees), len(ds.Edges))
		return nil
	case PromptScore:
		return scoreCandidate(ctx, m, scorer, logger)
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func switchMode(m *workflow.Machine) error {
	items := make([]string, 0, len(workflow.Modes))
	for _, mode := range workflow.Modes {
		items = append(items, string(mode))
	}

	modePrompt := promptui.Select{
		Label: "Choose a mode",
		Items: items,
	}

	_, selected, err := modePrompt.Run()
	if err != nil {
		return err
	}

	mode, err := workflow.ParseMode(selected)
	if err != nil {
		return err
	}
	return m.SwitchMode(mode)
}

// selectRow returns the chosen builder row or -1 when the user went back.
func selectRow(rows []orgraph.Employee) (int, error) {
	items := make([]string, 0, len(rows)+1)
	for _, row := range rows {
		items = append(items, fmt.Sprintf("%s %s (%s) %.0f/%.0f", row.ID, row.Name, row.Unit, row.PotentialScore, row.PerformanceScore))
	}

	rowPrompt := promptui.Select{
		Label: "Choose a team member",
		Items: append(items, PromptBack),
	}

	i, _, err := rowPrompt.Run()
	if err != nil {
		return -1, err
	}
	if i == len(rows) {
		return -1, nil
	}
	return i, nil
}

func askMember(current orgraph.Employee) (orgraph.Employee, error) {
	var err error

	if current.Name, err = askText("Name", current.Name); err != nil {
		return current, err
	}
	if current.Title, err = askText("Title", current.Title); err != nil {
		return current, err
	}
	if current.Unit, err = askText("Unit", current.Unit); err != nil {
		return current, err
	}
	if current.PotentialScore, err = askScore("Potential score", current.PotentialScore); err != nil {
		return current, err
	}
	if current.PerformanceScore, err = askScore("Performance score", current.PerformanceScore); err != nil {
		return current, err
	}

	return current, nil
}

func askText(label, current string) (string, error) {
	textPrompt := promptui.Prompt{
		Label:   label,
		Default: current,
	}

	value, err := textPrompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func askScore(label string, current float64) (float64, error) {
	scorePrompt := promptui.Prompt{
		Label:   label,
		Default: strconv.FormatFloat(current, 'f', -1, 64),
		Validate: func(input string) error {
			v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
			if err != nil {
				return fmt.Errorf("score must be a number")
			}
			if v < 0 || v > 100 {
				return fmt.Errorf("score must be between 0 and 100")
			}
			return nil
		},
	}

	value, err := scorePrompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

func readDraftFiles(m *workflow.Machine) error {
	rosterFile, err := askText("Roster JSON file", "")
	if err != nil {
		return err
	}
	collaborationsFile, err := askText("Collaborations JSON file (empty for none)", "")
	if err != nil {
		return err
	}

	roster, err := os.ReadFile(rosterFile)
	if err != nil {
		return err
	}

	collaborations := []byte("[]")
	if collaborationsFile != "" {
		if collaborations, err = os.ReadFile(collaborationsFile); err != nil {
			return err
		}
	}

	m.SetEditorDraft(string(roster), string(collaborations))
	return nil
}

func scoreCandidate(ctx context.Context, m *workflow.Machine, scorer scoring.Provider, logger *zap.Logger) error {
	kindPrompt := promptui.Select{
		Label: "Document kind",
		Items: []string{string(scoring.ArtifactCV), string(scoring.ArtifactPerformance)},
	}
	_, selected, err := kindPrompt.Run()
	if err != nil {
		return err
	}
	kind, err := scoring.ParseArtifactKind(selected)
	if err != nil {
		return err
	}

	path, err := askText("Text file with the document", "")
	if err != nil {
		return err
	}
	title, err := askText("Target position (optional)", "")
	if err != nil {
		return err
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	candidate := m.Candidate()
	result, err := scorer.Score(ctx, scoring.Artifact{
		Kind:          kind,
		CandidateName: candidate.Name,
		TargetTitle:   title,
		Text:          string(text),
	})
	if err != nil {
		return fmt.Errorf("scoring %s: %w", kind, err)
	}

	candidate = m.SyncCandidate(result)

	fields := []zap.Field{zap.String("candidate_id", candidate.ID), zap.String("kind", string(kind))}
	if candidate.PotentialScore != nil {
		fields = append(fields, zap.Float64("potential", *candidate.PotentialScore))
	}
	if candidate.PerformanceScore != nil {
		fields = append(fields, zap.Float64("performance", *candidate.PerformanceScore))
	}
	logger.Info("candidate scored", fields...)

	if result.Summary != "" {
		fmt.Fprintln(os.Stdout, result.Summary)
	}
	return nil
}

func printSnapshot(snap *layout.Snapshot) {
	if snap == nil {
		fmt.Fprintln(os.Stdout, "No graph has been analyzed yet.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMPLOYEE\tEFFECTIVENESS\tBAND")
	for _, node := range snap.Nodes {
		label := strings.ReplaceAll(node.Data.Label, "\n", " | ")
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", node.ID, label, node.Score, node.Band)
	}
	w.Flush()

	fmt.Fprintf(os.Stdout, "\nEmployees: %d, collaborations: %d, average effectiveness: %.2f, silos: %d\n",
		snap.Metrics.TotalEmployees,
		snap.Metrics.TotalCollaborations,
		snap.Metrics.AverageEffectiveness,
		snap.Metrics.SiloCount,
	)
}
