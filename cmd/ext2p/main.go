package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ext2p/ext2p/internal/elog"
	"github.com/ext2p/ext2p/internal/shell"
)

var rootCmd = &cobra.Command{
	Use:   "ext2p [IMAGE]",
	Short: "interactive ext2 image reader and navigator",
	Long: "ext2p opens an ext2 filesystem image and exposes an interactive " +
		"shell for browsing it: cat, cd, ls, stat, fsdump, rm, mount, and save.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var image string
		if len(args) == 1 {
			image = args[0]
		}

		noColor := viper.GetBool("no-color")
		debug := viper.GetBool("debug")
		log := elog.New(noColor, debug, false)

		sh, err := shell.New(os.Stdin, os.Stdout, log, noColor, image)
		if err != nil {
			return err
		}
		return sh.Run()
	},
}

// addGlobalFlags registers ext2p's two global flags on f, mirroring the
// teacher's addModifyFlags(f *pflag.FlagSet) pattern of taking the flag set
// as an explicit parameter rather than reaching for the package-level one.
func addGlobalFlags(f *pflag.FlagSet) {
	f.Bool("no-color", false, "disable ANSI colored output")
	f.Bool("debug", false, "enable verbose debug logging")
}

func commandInit() {
	addGlobalFlags(rootCmd.Flags())

	_ = viper.BindPFlag("no-color", rootCmd.Flags().Lookup("no-color"))
	_ = viper.BindPFlag("debug", rootCmd.Flags().Lookup("debug"))
	viper.SetEnvPrefix("EXT2P")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	commandInit()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
