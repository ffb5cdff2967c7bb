package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"nest-hub/internal/logging"
	"nest-hub/simulator"
)

func main() {
	config := simulator.DefaultConfig()
	flag.IntVar(&config.NumUsers, "users", config.NumUsers, "number of simulated students")
	flag.DurationVar(&config.SimulationTime, "duration", config.SimulationTime, "how long to run")
	flag.Float64Var(&config.PostFrequency, "posts", config.PostFrequency, "posts per user per hour")
	flag.Float64Var(&config.CommentFrequency, "comments", config.CommentFrequency, "comments per user per hour")
	flag.Float64Var(&config.VoteFrequency, "votes", config.VoteFrequency, "votes per user per hour")
	flag.Float64Var(&config.ZipfS, "zipf", config.ZipfS, "zipf exponent for user activity")
	flag.Float64Var(&config.RequestsPerSecond, "rps", config.RequestsPerSecond, "request rate ceiling")
	flag.StringVar(&config.EngineURL, "url", config.EngineURL, "server base URL")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logging.Init(*logLevel, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("simulation configuration",
		"url", config.EngineURL,
		"users", config.NumUsers,
		"duration", config.SimulationTime,
		"posts_per_hour", config.PostFrequency,
		"comments_per_hour", config.CommentFrequency,
		"votes_per_hour", config.VoteFrequency,
		"zipf", config.ZipfS)

	sim := simulator.NewEnhancedSimulator(config)
	if err := sim.Run(ctx); err != nil {
		slog.Error("simulation failed", "err", err)
		os.Exit(1)
	}

	m := sim.GetMetrics()
	slog.Info("simulation completed",
		"users", m.TotalUsers,
		"requests", m.TotalRequests,
		"failed", m.FailedRequests,
		"avg_latency", m.AverageLatency,
		"posts", m.TotalPosts,
		"comments", m.TotalComments,
		"replies", m.TotalReplies,
		"votes", m.TotalVotes,
		"repeat_votes", m.RepeatVotes)
}
