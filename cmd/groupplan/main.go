// Command groupplan runs an end-to-end planner/executor conversation against
// the configured LLM backend. It reads a free-text goal from standard input,
// drives the group chat to completion or round budget and prints the
// transcript plus a structured result dump.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/groupplan/groupplan"
	"github.com/groupplan/groupplan/config"
	"github.com/groupplan/groupplan/logging"
)

func main() {
	// Local override file; absence is fine.
	_ = godotenv.Load()

	cfg := config.Load()

	gp, err := groupplan.New(cfg, func(o *groupplan.Options) {
		o.Logger = logging.NewDefaultSlogLogger()
	})
	if err != nil {
		log.Fatalf("setup failed: %v", err)
	}

	fmt.Println("=== Planner/Executor Group Chat ===")
	fmt.Printf("backend: %s model=%s base_url=%s\n\n", cfg.Provider, cfg.Model, cfg.BaseURL)

	fmt.Print("Goal: ")
	reader := bufio.NewReader(os.Stdin)
	goal, err := reader.ReadString('\n')
	if err != nil && goal == "" {
		log.Fatalf("read goal: %v", err)
	}
	goal = strings.TrimSpace(goal)
	fmt.Printf("User goal: %s\n\n", goal)

	res, err := gp.Run(context.Background(), goal)
	if err != nil {
		log.Fatalf("conversation failed: %v", err)
	}

	fmt.Println("=== Transcript ===")
	fmt.Print(res.Transcript())

	fmt.Println("\n=== Final Conversation Result ===")
	dump, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		log.Fatalf("encode result: %v", err)
	}
	fmt.Println(string(dump))

	if res.PlanPath != "" {
		fmt.Printf("\nplan written to %s\n", res.PlanPath)
	}
}
