package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/AGPFMiner/fpgaloader/config"
	"github.com/AGPFMiner/fpgaloader/loader"
	"github.com/AGPFMiner/fpgaloader/pci"
	"github.com/AGPFMiner/fpgaloader/vivado"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const version = "1.0.0"

var (
	cfgFile  string
	hotReset bool
	watch    bool
)

// The main command performs one deployment and defaults to printing
// the usage when the bitstream argument is missing.
var mainCmd = &cobra.Command{
	Use:   "loadbitstream <bitstream-file>",
	Short: "Loads a compiled bitstream into an FPGA accelerator card",
	Long: `Loads a compiled bitstream into an FPGA accelerator card by driving
Vivado in batch mode through a generated TCL script, then optionally
hot-resets the card's PCI function so the OS re-enumerates it.`,
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return load(args[0])
	},
}

// The version command prints this tool's version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version.",
	Long:  "The version of the loadbitstream tool.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	// Usage goes to stdout; only run failures land on stderr.
	mainCmd.SetOutput(os.Stdout)
	mainCmd.AddCommand(versionCmd)

	flags := mainCmd.Flags()
	// Flag names follow the config file's underscore spelling; dashes
	// are accepted as aliases.
	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "-", "_"))
	})
	flags.BoolVar(&hotReset, "hot_reset", false, "hot-reset the PCI function after a successful load")
	flags.StringVarP(&cfgFile, "config", "c", "load_bitstream.conf", "config file path")
	flags.BoolVar(&watch, "watch", false, "stay up and redeploy whenever the bitstream file is rewritten")
	flags.String("api_listen", "0.0.0.0:8000", "status API listen address in watch mode, empty disables")
	flags.String("debug", "error", "log level: debug, info or error")

	viper.SetDefault("api_listen", "0.0.0.0:8000")
	viper.SetDefault("debug", "error")
	viper.BindPFlag("api_listen", flags.Lookup("api_listen"))
	viper.BindPFlag("debug", flags.Lookup("debug"))
}

func main() {
	if err := mainCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func load(bitstream string) error {
	// Programming hardware and poking the PCI tree both need root;
	// give up before touching the configuration.
	if os.Geteuid() != 0 {
		return &loader.RunError{Kind: loader.KindPrivilege, Msg: "must be root to run, use sudo"}
	}

	v := viper.GetViper()
	v.SetConfigFile(cfgFile)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return &loader.RunError{Kind: loader.KindConfig, Msg: "can't read file " + cfgFile, Err: err}
	}

	cfg, err := config.Load(v, bitstream, hotReset)
	if err != nil {
		return &loader.RunError{Kind: loader.KindConfig, Msg: "bad config in " + cfgFile, Err: err}
	}

	ldr := loader.New(*cfg, &vivado.Runner{Path: cfg.Vivado}, &pci.Device{}, v.GetString("debug"))

	if err := ldr.Run(); err != nil {
		if !watch {
			return err
		}
		// A broken first deployment keeps the watcher alive; the next
		// rebuild may load cleanly.
		fmt.Fprintln(os.Stderr, err)
	}

	if watch {
		if listen := v.GetString("api_listen"); listen != "" {
			go ldr.ServeAPI(listen)
		}
		return ldr.Watch()
	}
	return nil
}
