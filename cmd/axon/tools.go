package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snazari/axon/config"
	"github.com/snazari/axon/internal/runtime"
)

func toolsCMD() *cobra.Command {
	var cfgPath string
	var query string
	var limit int

	var tools = &cobra.Command{
		Use:   "tools",
		Short: "List the tools available from the configured registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)

			ctx := cmd.Context()
			rt, err := runtime.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			specs, err := rt.Tools.Discover(ctx, query, limit)
			if err != nil {
				return err
			}
			if len(specs) == 0 {
				fmt.Println("no tools found")
				return nil
			}
			for _, s := range specs {
				fmt.Printf("%s\t%s\n", s.Name, s.Description)
				var names []string
				for name := range s.InputSchema.Properties {
					names = append(names, name)
				}
				sort.Strings(names)
				required := make(map[string]bool, len(s.InputSchema.Required))
				for _, r := range s.InputSchema.Required {
					required[r] = true
				}
				for _, name := range names {
					prop := s.InputSchema.Properties[name]
					marker := ""
					if required[name] {
						marker = " (required)"
					}
					fmt.Printf("    %s: %s%s  %s\n", name, prop.Type, marker, strings.TrimSpace(prop.Description))
				}
			}
			return nil
		},
	}
	tools.Flags().StringVarP(&query, "query", "q", "", "substring filter on name and description")
	tools.Flags().IntVar(&limit, "limit", 0, "cap the number of results (0 = all)")
	tools.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return tools
}
