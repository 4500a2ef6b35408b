package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/quatton/qwex-trainer/pkg/qapi"
	"github.com/quatton/qwex-trainer/pkg/qapi/config"
	"github.com/quatton/qwex-trainer/pkg/qapi/routes"
	"github.com/quatton/qwex-trainer/pkg/qapi/services"
	"github.com/spf13/cobra"
)

var servePort string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the trainer HTTP server",
	Long: `Starts the trainer HTTP server. Configuration is read from the environment
(and a .env file outside production). See PORT, LOADER_MODE, DEFAULT_CONFIG_PATH,
STRICT_OVERRIDES, S3_* and VALKEY_*.`,
	Run: serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Override PORT")
}

func serve(cmd *cobra.Command, args []string) {
	cfg, err := config.ValidateEnv()
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	cfg.Print(log.Printf)

	svcs, err := services.NewServices(cfg)
	if err != nil {
		log.Fatalf("failed to initialize services: %v", err)
	}
	defer svcs.Close()

	api := qapi.NewApi()
	routes.RegisterAPI(api.Api, api.Router, svcs)

	addr := fmt.Sprintf(":%s", cfg.Port)

	log.Printf("🚀 Trainer starting on %s\n", addr)
	log.Printf("📚 OpenAPI docs: %s/docs\n", cfg.BaseURL)
	log.Printf("📄 OpenAPI spec: %s/openapi.json\n", cfg.BaseURL)
	log.Printf("🧪 Run endpoints:\n")
	log.Printf("   - Configure: POST %s/api/run/configure", cfg.BaseURL)
	log.Printf("   - Execute:   POST %s/api/run/execute", cfg.BaseURL)
	log.Printf("   - Form:      POST %s%s", cfg.BaseURL, routes.FormPath)

	if err := http.ListenAndServe(addr, api.Router); err != nil {
		svcs.Close()
		svcs.Log.Fatal("server stopped", "addr", addr, "error", err)
	}
}
