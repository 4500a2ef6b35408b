package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/quatton/qwex-trainer/pkg/kv"
	"github.com/quatton/qwex-trainer/pkg/qapi/config"
	"github.com/quatton/qwex-trainer/pkg/qapi/services"
	"github.com/quatton/qwex-trainer/pkg/qtrain"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage config documents stored in Valkey",
	Long: `Config documents pushed here are served to configure requests as kv://<name>.
Connection settings come from VALKEY_ADDR, VALKEY_PASSWORD and VALKEY_DB.`,
}

var configPushCmd = &cobra.Command{
	Use:   "push <name> <file>",
	Short: "Validate a config document and store it under <name>",
	Long: `Reads <file> ("-" for stdin), checks that it decodes to a valid argument set
in the format implied by <name>'s extension (yaml when there is none), then
stores it so that kv://<name> resolves to it.`,
	Args: cobra.ExactArgs(2),
	RunE: pushConfig,
}

var configShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a stored config document and the arguments it resolves to",
	Args:  cobra.ExactArgs(1),
	RunE:  showConfig,
}

var configPushTTL time.Duration

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPushCmd, configShowCmd)
	configPushCmd.Flags().DurationVar(&configPushTTL, "ttl", 0, "Expire the document after this long (0 keeps it)")
}

func pushConfig(cmd *cobra.Command, args []string) error {
	name, file := args[0], args[1]

	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	store, err := openValkey(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	resolved, err := pushDocument(cmd.Context(), store, name, data, configPushTTL)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored kv://%s\n", name)
	printArguments(cmd.OutOrStdout(), resolved)
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	store, err := openValkey(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	data, resolved, err := showDocument(cmd.Context(), store, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	printArguments(cmd.OutOrStdout(), resolved)
	return nil
}

// pushDocument validates data before writing it, so a stored document always
// loads.
func pushDocument(ctx context.Context, store kv.Store, name string, data []byte, ttl time.Duration) (qtrain.ArgumentSet, error) {
	if err := qtrain.ValidateRef(name); err != nil {
		return qtrain.ArgumentSet{}, err
	}
	resolved, err := qtrain.ValidateDocument(data, name)
	if err != nil {
		return qtrain.ArgumentSet{}, err
	}
	if err := store.Set(ctx, kv.ConfigKey(name), data, ttl); err != nil {
		return qtrain.ArgumentSet{}, fmt.Errorf("failed to store %s: %w", name, err)
	}
	return resolved, nil
}

func showDocument(ctx context.Context, store kv.Store, name string) ([]byte, qtrain.ArgumentSet, error) {
	data, err := store.Get(ctx, kv.ConfigKey(name))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, qtrain.ArgumentSet{}, fmt.Errorf("no config stored as kv://%s", name)
	}
	if err != nil {
		return nil, qtrain.ArgumentSet{}, err
	}
	resolved, err := qtrain.ValidateDocument(data, name)
	if err != nil {
		return data, qtrain.ArgumentSet{}, err
	}
	return data, resolved, nil
}

func openValkey(ctx context.Context) (*kv.ValkeyStore, error) {
	cfg, err := config.ValidateEnv()
	if err != nil {
		return nil, err
	}
	if cfg.ValkeyAddr == "" {
		return nil, errors.New("VALKEY_ADDR is not set")
	}
	store, err := services.NewValkeyStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}
	return store, nil
}

func printArguments(w io.Writer, a qtrain.ArgumentSet) {
	fmt.Fprintf(w, "  total_round=%d start_round=%d data_size=%d mode=%s\n", a.TotalRound, a.StartRound, a.DataSize, a.Mode)
}
