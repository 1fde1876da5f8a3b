package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seojaehong/hr-mvp-app/factory"
	"github.com/seojaehong/hr-mvp-app/simulation"
	"github.com/seojaehong/hr-mvp-app/worktime"
)

// =============================================================================
// CALC
// =============================================================================

func (a *app) calcCmd() *cobra.Command {
	var in inputFlags
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate one employee month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := in.request(cmd.InOrStdin())
			if err != nil {
				return err
			}
			policy, err := a.policy()
			if err != nil {
				return err
			}
			return a.process(cmd, policy, req)
		},
	}
	in.register(cmd)
	return cmd
}

// process writes the result and fails the command when it carries an error.
func (a *app) process(cmd *cobra.Command, policy *worktime.Policy, req worktime.Request) error {
	result := worktime.NewProcessor(policy, worktime.WithLogger(a.logger)).Process(req)
	if err := writeIndented(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if result.Error != nil {
		return fmt.Errorf("%s: %s", result.Error.ErrorCode, result.Error.Message)
	}
	return nil
}

// =============================================================================
// SIMULATE
// =============================================================================

func (a *app) simulateCmd() *cobra.Command {
	var (
		in              inputFlags
		variantsPath    string
		baseline        string
		workers         int
		filterConflicts bool
		xlsxPath        string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one input under several policy variants and compare",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := in.request(cmd.InOrStdin())
			if err != nil {
				return err
			}
			policy, err := a.policy()
			if err != nil {
				return err
			}

			f, err := os.Open(variantsPath)
			if err != nil {
				return fmt.Errorf("failed to open variants: %w", err)
			}
			file, err := simulation.LoadVariants(f)
			f.Close()
			if err != nil {
				return err
			}

			variants := file.Expand()
			if filterConflicts {
				variants = simulation.FilterConflicts(variants)
			}
			if baseline == "" {
				baseline = file.Baseline
			}
			if workers <= 0 {
				workers = a.cfg.Simulation.Workers
			}

			sim := simulation.NewSimulator(policy,
				simulation.WithWorkers(workers),
				simulation.WithLogger(a.logger))
			report, err := sim.Run(cmd.Context(), simulation.Request{
				Input:    req,
				Variants: variants,
				Baseline: baseline,
			})
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				if err := writeWorkbook(xlsxPath, report); err != nil {
					return err
				}
				a.logger.Info("workbook written", "path", xlsxPath)
			}
			return simulation.WriteJSON(cmd.OutOrStdout(), report)
		},
	}
	in.register(cmd)
	cmd.Flags().StringVar(&variantsPath, "variants", "", "Variants file (YAML)")
	cmd.Flags().StringVar(&baseline, "baseline", "", "Baseline variant (default: file baseline, then first variant)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker pool size (default: simulation.workers)")
	cmd.Flags().BoolVar(&filterConflicts, "filter-conflicts", false, "Drop matrix combinations whose parts conflict")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the report as an XLSX workbook")
	cmd.MarkFlagRequired("variants")
	return cmd
}

func writeWorkbook(path string, report *simulation.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	if err := simulation.WriteXLSX(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// =============================================================================
// SCENARIOS AND PRESETS
// =============================================================================

func (a *app) scenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the sample scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMODE\tPRESET\tNAME")
			for _, s := range factory.Scenarios() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Category, s.Preset, s.Name)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run ID",
		Short: "Calculate a sample scenario under its preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := factory.FindScenario(args[0])
			if err != nil {
				return err
			}
			settings, err := a.settings.Preset(scenario.Preset)
			if err != nil {
				return err
			}
			policy, err := a.settings.Policy(settings)
			if err != nil {
				return err
			}
			return a.process(cmd, policy, scenario.Request)
		},
	})
	return cmd
}

func (a *app) presetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the built-in settings presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range factory.PresetNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show NAME",
		Short: "Print a preset as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := factory.PresetYAML(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
			return err
		},
	})
	return cmd
}
