package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/layout"
	"github.com/mmbarrys/navigara/internal/orgraph"
	"github.com/mmbarrys/navigara/internal/simulation"
	"github.com/mmbarrys/navigara/internal/workflow"
)

type simulationOutput struct {
	*layout.Snapshot
	Report               string           `json:"report"`
	EmployeeID           string           `json:"pegawaiId"`
	FromUnit             string           `json:"fromUnit"`
	TargetUnit           string           `json:"targetUnit"`
	EmployeeScore        simulation.Delta `json:"employee_score"`
	AverageEffectiveness simulation.Delta `json:"avg_effectiveness_change"`
	SiloCount            simulation.Delta `json:"num_silos_change"`
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate moving one employee to another unit",
	Run: func(cmd *cobra.Command, _ []string) {
		simulate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	addDatasetFlags(simulateCmd)
	simulateCmd.Flags().StringP("employee", "e", "", "id of the employee to move. Asked interactively when unset.")
	simulateCmd.Flags().StringP("unit", "u", "", "target unit. Asked interactively when unset.")
	simulateCmd.Flags().Bool("snapshot", false, "print the post-move snapshot as JSON instead of the report")
}

func simulate(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := bootstrap("simulate")

	ds, err := loadDataset(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("loading a dataset", zap.Error(err))
	}

	employeeID, _ := cmd.Flags().GetString("employee")
	if strings.TrimSpace(employeeID) == "" {
		employeeID, err = selectEmployee(employeeChoices(ds.Employees))
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	targetUnit, _ := cmd.Flags().GetString("unit")
	if strings.TrimSpace(targetUnit) == "" {
		targetUnit, err = selectUnit(ds.Units())
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	outcome, err := simulation.SimulateMove(simulation.Request{
		Employees:  ds.Employees,
		Edges:      ds.Edges,
		EmployeeID: employeeID,
		TargetUnit: targetUnit,
	})
	if err != nil {
		logger.Fatal("simulating the move", zap.Error(err))
	}

	if asJSON, _ := cmd.Flags().GetBool("snapshot"); asJSON {
		out := simulationOutput{
			Snapshot:             layout.Render(outcome.Dataset, outcome.After),
			Report:               outcome.Report,
			EmployeeID:           outcome.EmployeeID,
			FromUnit:             outcome.FromUnit,
			TargetUnit:           outcome.TargetUnit,
			EmployeeScore:        outcome.EmployeeScore,
			AverageEffectiveness: outcome.AverageEffectiveness,
			SiloCount:            outcome.SiloCount,
		}
		if err := printJSON(os.Stdout, out); err != nil {
			logger.Fatal("printing the snapshot", zap.Error(err))
		}
		return
	}

	fmt.Fprintln(os.Stdout, outcome.Report)
}

func employeeChoices(employees []orgraph.Employee) []workflow.Choice {
	choices := make([]workflow.Choice, 0, len(employees))
	for _, e := range employees {
		choices = append(choices, workflow.Choice{ID: e.ID, Label: fmt.Sprintf("%s (%s)", e.Name, e.Unit)})
	}
	return choices
}

func selectEmployee(choices []workflow.Choice) (string, error) {
	if len(choices) == 0 {
		return "", fmt.Errorf("there are no employees to choose from")
	}

	items := make([]string, 0, len(choices))
	for _, c := range choices {
		items = append(items, fmt.Sprintf("%s %s", c.ID, c.Label))
	}

	employeePrompt := promptui.Select{
		Label: "Choose an employee and press ENTER",
		Items: items,
		Size:  10,
	}

	i, _, err := employeePrompt.Run()
	if err != nil {
		return "", err
	}

	return choices[i].ID, nil
}

// selectUnit offers the known units and a free-form entry for a new one.
func selectUnit(units []string) (string, error) {
	unitPrompt := promptui.SelectWithAdd{
		Label:    "Choose a target unit",
		Items:    units,
		AddLabel: "Another unit",
	}

	_, unit, err := unitPrompt.Run()
	if err != nil {
		return "", err
	}

	unit = strings.TrimSpace(unit)
	if unit == "" {
		return "", fmt.Errorf("target unit is required")
	}
	return unit, nil
}
