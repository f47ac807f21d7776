package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"trp_review/audit"
	"trp_review/config"
	"trp_review/review"
	"trp_review/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	configPath := flag.String("config", "config/config.json", "path to config.json")
	docPath := flag.String("doc", "", "path to a document to review once from the CLI")
	maxLoops := flag.Int("max-loops", 0, "iteration cap override (default from config)")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logStartupEvents(cfg)

	llm, llmErr := buildLLM(cfg)

	if *serve {
		srv := server.New(llm, llmErr, cfg, log.Default())
		listen := cfg.ServerAddr
		if *addr != "" {
			listen = *addr
		}
		log.Printf("Starting web server on %s", listen)
		if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if *docPath == "" {
		fmt.Fprintln(os.Stderr, "--doc is required (or use --serve)")
		os.Exit(1)
	}
	if llm == nil {
		fmt.Fprintln(os.Stderr, llmErr)
		os.Exit(1)
	}

	document, err := os.ReadFile(*docPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	trail, err := audit.NewTrail(cfg.AuditDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	reviewer, err := review.NewReviewer(llm, review.Options{
		Trail:            trail,
		MaxDocumentBytes: cfg.MaxDocumentBytes,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	loops := *maxLoops
	if loops <= 0 {
		loops = cfg.MaxLoops
	}
	log.Printf("[cli] reviewing doc=%s max_loops=%d", *docPath, loops)
	sess, err := reviewer.Run(context.Background(), string(document), loops)
	if err != nil {
		if sess != nil && len(sess.Loops) > 0 {
			log.Printf("[cli] %d loop(s) completed before failure; audit trail at %s", len(sess.Loops), trail.Path())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.Printf("[cli] review done loops=%d converged=%v reason=%q audit=%s",
		len(sess.Loops), sess.Converged, sess.StopReason, trail.Path())
	fmt.Println(sess.Final)
}

// logStartupEvents mirrors the diagnostics to the process log and startup.log.
func logStartupEvents(cfg config.Config) {
	for _, ev := range cfg.Events {
		switch ev.Level {
		case "warning":
			log.Printf("WARNING: %s", ev.Message)
		case "error":
			log.Printf("ERROR: %s", ev.Message)
		default:
			log.Printf("INFO: %s", ev.Message)
		}
		if err := audit.AppendStartupEvent(cfg.AuditDir, ev.Level, ev.Message); err != nil {
			log.Printf("WARNING: could not write startup.log: %v", err)
		}
	}
}

// buildLLM constructs the configured client. A failure is returned as a
// message instead of aborting so serve mode can come up with a warning banner.
func buildLLM(cfg config.Config) (review.LLMClient, string) {
	switch cfg.LLM.Provider {
	case "mock":
		return review.MockLLM{}, ""
	default:
		llm, err := review.NewOpenAILLMFromConfig(&review.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
		if err != nil {
			return nil, err.Error()
		}
		return llm, ""
	}
}
