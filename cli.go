package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Arbasante/proyecto-easyworship/internal/app"
	"github.com/Arbasante/proyecto-easyworship/internal/db"
	"github.com/Arbasante/proyecto-easyworship/internal/songs"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("easypresenter %s\n", version)
	},
}

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Copy the seed databases and apply pending migrations, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openStores(cmd.Context())
		if err != nil {
			return err
		}
		defer reg.Close()

		green := color.New(color.FgGreen)
		for _, spec := range db.Specs() {
			green.Print("  ✓ ")
			fmt.Printf("%-11s %s\n", spec.Store, dbPath(spec.File))
		}
		return nil
	},
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show where databases and seeds are looked up",
	Run: func(cmd *cobra.Command, args []string) {
		cyan := color.New(color.FgCyan)
		gray := color.New(color.FgHiBlack)
		yellow := color.New(color.FgYellow)

		cyan.Print("Data:      ")
		fmt.Println(cfg.DataDir)
		cyan.Print("Resources: ")
		fmt.Println(cfg.ResourceDir)
		fmt.Println()

		for _, spec := range db.Specs() {
			fmt.Printf("  %-11s %s", spec.Store, dbPath(spec.File))
			switch {
			case exists(dbPath(spec.File)):
				gray.Println(" (provisioned)")
			case exists(seedPath(spec.File)):
				gray.Println(" (will be seeded)")
			default:
				yellow.Println(" (seed missing)")
			}
		}
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write every song to a JSON bundle file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmds, closeFn, err := songCommands(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := cmds.ExportFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Print("✓ ")
		fmt.Printf("Exported %d songs to %s\n", n, args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge a JSON bundle file into the song library",
	Long: `Merge a JSON bundle file into the song library. A song whose title
matches an existing song replaces that song's slides; other songs are added.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmds, closeFn, err := songCommands(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := cmds.ImportFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Print("✓ ")
		fmt.Printf("Imported %d songs (%d new, %d replaced)\n", res.Total(), res.Created, res.Replaced)
		return nil
	},
}

// songCommands opens the stores for an offline song command.
func songCommands(cmd *cobra.Command) (*app.Commands, func(), error) {
	reg, err := openStores(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return &app.Commands{Songs: songs.NewStore(reg)}, func() { reg.Close() }, nil
}

func dbPath(file string) string   { return filepath.Join(cfg.DataDir, file) }
func seedPath(file string) string { return filepath.Join(cfg.ResourceDir, file) }

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
