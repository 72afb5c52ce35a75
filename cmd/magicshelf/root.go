package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "magicshelf",
	Short: "Compile and run Magic Shelf rules against a book library",
	Long: `magicshelf turns declarative shelf rules (nested AND/OR filters over
book fields) into SQL predicates, and can run them against a Calibre-style
SQLite library.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.magicshelf.yaml)")
	rootCmd.PersistentFlags().String("library", "library.db", "path to the SQLite library database")
	_ = viper.BindPFlag("library", rootCmd.PersistentFlags().Lookup("library"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".magicshelf")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("MAGICSHELF")
	viper.AutomaticEnv()

	// Missing config file is fine; flags and env cover everything.
	_ = viper.ReadInConfig()
}

func libraryPath() string {
	return filepath.Clean(viper.GetString("library"))
}
