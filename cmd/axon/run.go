package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snazari/axon/config"
	"github.com/snazari/axon/internal/engine"
	"github.com/snazari/axon/internal/runtime"
)

func runCMD() *cobra.Command {
	var cfgPath string
	var mode string
	var sessionID string
	var userID string
	var asJSON bool

	var run = &cobra.Command{
		Use:   "run [query]",
		Short: "Process a query in ask, plan, or agent mode",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)

			ctx := cmd.Context()
			rt, err := runtime.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			query := args[0]
			for _, a := range args[1:] {
				query += " " + a
			}

			res, err := rt.Engine.Run(ctx, mode, sessionID, userID, query)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printResult(res)
			return nil
		},
	}
	run.Flags().StringVarP(&mode, "mode", "m", engine.ModeAgent, "ask, plan, or agent")
	run.Flags().StringVar(&sessionID, "session", "", "session id (generated when empty)")
	run.Flags().StringVar(&userID, "user", "", "user id")
	run.Flags().BoolVar(&asJSON, "json", false, "emit the full result as JSON")
	run.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return run
}

func printResult(res *engine.Result) {
	if res.Answer != "" {
		fmt.Println(res.Answer)
		return
	}
	if res.Plan != nil {
		fmt.Printf("plan %s (confidence %.2f):\n", res.Plan.ID, res.Plan.Confidence)
		for _, step := range res.Plan.Steps {
			tool := step.Tool
			if tool == "" {
				tool = "manual"
			}
			fmt.Printf("  %d. [%s] %s\n", step.Order, tool, step.Description)
		}
	}
	if res.Execution != nil {
		fmt.Printf("execution %s: %s after %d iteration(s)\n", res.Execution.ID, res.Execution.Status, res.Iterations)
		for i, es := range res.Execution.Steps {
			fmt.Printf("  step %d: %s", i+1, es.Status)
			if es.Error != "" {
				fmt.Printf(" (%s)", es.Error)
			}
			fmt.Println()
		}
	}
	if res.Reflection != nil {
		fmt.Printf("reflection: success=%t\n%s\n", res.Reflection.Success, res.Reflection.Analysis)
	}
}
