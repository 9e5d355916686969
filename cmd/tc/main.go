package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tc-go/internal/app"
	"tc-go/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a TCApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Scan", "Refresh").
func newApp(operation string) (*app.TCApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewTCApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts for a passphrase without echoing it.
func readPassphrase(prompt string) (string, error) {
	fmt.Print(prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(data), nil
}

var rootCmd = &cobra.Command{
	Use:   "tc",
	Short: "Tutorial catalog",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Database: %s (%s)\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Backup:   %s\n", cfg.Backup.Type)
		for _, d := range cfg.Disks {
			fmt.Printf("Disk:     %s/%s  location=%s role=%s depth=%d checked=%t\n",
				d.Parent, d.Name, d.Location, d.Role, d.Depth, d.Checked)
		}
		return nil
	},
}

// disks command
var disksCmd = &cobra.Command{
	Use:   "disks",
	Short: "List catalogued disks",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListDisks")
		if err != nil {
			return err
		}
		defer a.Close()

		disks, err := a.ListDisks()
		if err != nil {
			return err
		}

		if len(disks) == 0 {
			fmt.Println("No disks catalogued.")
			return nil
		}

		for _, d := range disks {
			online := "offline"
			if d.Online {
				online = "online"
			}
			fmt.Printf("%-40s  %-7s  %-9s  depth=%d  checked=%t  %s\n",
				d.Parent+"/"+d.Name, d.Location, d.Role, d.Depth, d.Checked, online)
		}
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan [MODE]",
	Short: "Scan disks and reconcile the catalog",
	Long:  "Scan disks and reconcile the catalog. MODE is startup, quick or extended (default quick). Ctrl-C cancels the scan cooperatively; folders already committed stay committed.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := "quick"
		if len(args) > 0 {
			mode = args[0]
		}

		a, err := newApp("Scan")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SyncDisks(); err != nil {
			return fmt.Errorf("syncing disks: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.Scan(ctx, mode)
	},
}

// refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh PATH...",
	Short: "Refresh cover, images and descriptor for specific folders",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Refresh")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.RefreshFolders(ctx, args)
	},
}

// folders command
var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List catalogued folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		diskPath, _ := cmd.Flags().GetString("disk")

		a, err := newApp("ListFolders")
		if err != nil {
			return err
		}
		defer a.Close()

		folders, err := a.ListFolders(diskPath)
		if err != nil {
			return err
		}

		if len(folders) == 0 {
			fmt.Println("No folders catalogued.")
			return nil
		}

		for _, f := range folders {
			path := f.Name
			if f.Parent != "" {
				path = f.Parent + "/" + f.Name
			}
			line := fmt.Sprintf("%-8s  %12d  %s", f.Status, f.Size, path)
			if f.Error != "" {
				line += "  [" + f.Error + "]"
			}
			fmt.Println(line)
		}
		return nil
	},
}

// authors command
var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "Manage authors",
}

var authorsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete authors no tutorial references",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("PruneAuthors")
		if err != nil {
			return err
		}
		defer a.Close()

		deleted, err := a.PruneAuthors()
		if err != nil {
			return err
		}

		fmt.Printf("Pruned %d author(s)\n", deleted)
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage catalog snapshots",
}

var backupInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate snapshot encryption keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("BackupInit")
		if err != nil {
			return err
		}
		defer a.Close()

		enc := a.Encryptor()
		if enc == nil {
			return fmt.Errorf("backup encryption is not configured (set recipient_path and identity_path)")
		}
		if enc.IsConfigured() {
			return fmt.Errorf("encryption keys already exist")
		}

		passphrase, err := readPassphrase("Passphrase for the new key: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := enc.Setup(passphrase); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

		fmt.Println("Encryption keys generated.")
		return nil
	},
}

var backupNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Snapshot the catalog to the backup target",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Backup")
		if err != nil {
			return err
		}
		defer a.Close()

		runner, err := a.Snapshots()
		if err != nil {
			return err
		}

		name, err := runner.Snapshot(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Snapshot stored: %s\n", name)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("BackupList")
		if err != nil {
			return err
		}
		defer a.Close()

		runner, err := a.Snapshots()
		if err != nil {
			return err
		}

		names, err := runner.List(cmd.Context())
		if err != nil {
			return err
		}

		if len(names) == 0 {
			fmt.Println("No snapshots stored.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore NAME DEST",
	Short: "Restore a snapshot to a local path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("BackupRestore")
		if err != nil {
			return err
		}
		defer a.Close()

		runner, err := a.Snapshots()
		if err != nil {
			return err
		}

		name, dest := args[0], args[1]
		passphrase := ""
		if a.Encryptor() != nil {
			passphrase, err = readPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
		}

		if err := runner.Restore(cmd.Context(), name, dest, passphrase); err != nil {
			return err
		}

		fmt.Printf("Restored %s to %s\n", name, dest)
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// authors subcommands
	authorsCmd.AddCommand(authorsPruneCmd)

	// backup subcommands
	backupCmd.AddCommand(backupInitCmd)
	backupCmd.AddCommand(backupNowCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(disksCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(foldersCmd)
	foldersCmd.Flags().String("disk", "", "Only folders of the disk rooted at this path")
	rootCmd.AddCommand(authorsCmd)
	rootCmd.AddCommand(backupCmd)
}
