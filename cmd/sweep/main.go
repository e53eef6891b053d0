// One-shot overdue sweep for cron-driven deployments:
//
//	0 */6 * * *  /usr/local/bin/ip-sweep
//
// Exits non-zero when the sweep cannot run so cron mails the operator.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"ip-management-api/config"
	"ip-management-api/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}
	config.InitDB()

	policies := services.NewSLAPolicyService(config.DB)
	notifier := services.NewNotificationService(config.DB)
	sweeper := services.NewSweepService(config.DB, policies, notifier)

	summary, err := sweeper.SweepOverdueStages()
	if err != nil {
		if errors.Is(err, services.ErrSweepInProgress) {
			log.Println("Sweep skipped: another run holds the lease")
			return
		}
		log.Fatalf("Sweep failed: %v", err)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode summary: %v", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
}
