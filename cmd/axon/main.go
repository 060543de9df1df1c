package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "axon"}

	root.AddCommand(runCMD(), toolsCMD(), migrateCMD())
	_ = root.Execute()
}
