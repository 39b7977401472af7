package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"triviagen"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := triviagen.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var (
		count       = flag.Int("count", 1, "Number of unique questions to generate")
		concurrency = flag.Int("concurrency", 1, "Number of questions generated in parallel")
		logPath     = flag.String("log", cfg.QuestionLogPath, "Question log CSV file")
		apiKey      = flag.String("api-key", cfg.OpenAIAPIKey, "OpenAI API key (or set OPENAI_API_KEY env var)")
		attempts    = flag.Int("attempts", cfg.MaxAttempts, "Maximum generation attempts per question")
		outputFile  = flag.String("output", "", "Output file for generated questions JSON (default: stdout)")
		transcript  = flag.String("transcript", cfg.TranscriptDir, "Directory for the generation transcript (optional)")
		verbose     = flag.Bool("verbose", false, "Enable verbose debugging output")
	)
	flag.Parse()

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	log := triviagen.SetupLogger(level, cfg.LogFormat, os.Stderr)

	cfg.OpenAIAPIKey = *apiKey
	cfg.QuestionLogPath = *logPath
	cfg.MaxAttempts = *attempts
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if *count < 1 || *concurrency < 1 {
		log.Fatal().Int("count", *count).Int("concurrency", *concurrency).Msg("count and concurrency must be positive")
	}

	questions, err := triviagen.NewCSVQuestionLog(cfg.QuestionLogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open question log")
	}

	maker := triviagen.NewQuestionMaker(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Generation)
	generator := triviagen.NewQuizGenerator(maker, questions, log)
	generator.SetMaxAttempts(cfg.MaxAttempts)

	if *transcript != "" {
		t, err := triviagen.NewTranscript(*transcript)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open transcript")
		}
		defer t.Close()
		generator.SetTranscript(t)
	}

	timeout := time.Duration(*count*cfg.MaxAttempts)*cfg.Generation.Timeout + time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	generated, failed := generateBatch(ctx, generator, *count, *concurrency)
	log.Info().Int("generated", len(generated)).Int("failed", failed).Msg("Generation finished")

	output, err := json.MarshalIndent(generated, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal questions")
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatal().Err(err).Msg("Failed to write output file")
		}
		log.Info().Str("path", *outputFile).Msg("Questions saved")
	} else {
		fmt.Println(string(output))
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// generateBatch asks for count questions with at most concurrency calls in
// flight. Calls that run concurrently load their duplicate index before each
// other's appends land, so the batch itself may contain duplicates.
func generateBatch(ctx context.Context, generator *triviagen.QuizGenerator, count, concurrency int) ([]triviagen.Question, int) {
	var (
		mu        sync.Mutex
		generated = make([]triviagen.Question, 0, count)
		failed    int
	)

	// Failures are counted rather than returned so one bad question does not
	// stop the rest of the batch.
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			q, err := generator.GenerateUniqueQuestion(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return nil
			}
			generated = append(generated, *q)
			return nil
		})
	}
	_ = g.Wait() // always nil

	return generated, failed
}
