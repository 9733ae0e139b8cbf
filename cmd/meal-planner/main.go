package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"meal-planner/internal/app"
	"meal-planner/internal/config"
	"meal-planner/internal/logger"
	"meal-planner/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "meal-planner"})

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	out := os.Stdout
	args := os.Args[2:]

	switch os.Args[1] {
	case "serve":
		err = serve(cfg, application)
	case "plan-week":
		cmd := flag.NewFlagSet("plan-week", flag.ExitOnError)
		start := cmd.String("start", "", "Any date (YYYY-MM-DD) in the week to plan")
		_ = cmd.Parse(args)
		err = application.PlanWeek(ctx, out, *start)
	case "plan":
		err = application.PrintPlan(ctx, out)
	case "shopping-list":
		cmd := flag.NewFlagSet("shopping-list", flag.ExitOnError)
		lang := cmd.String("lang", "en", "Ingredient language: en or original")
		_ = cmd.Parse(args)
		err = application.PrintShoppingList(ctx, out, *lang)
	case "today":
		err = application.PrintToday(ctx, out)
	case "history":
		err = application.PrintHistory(ctx, out)
	case "clean-recipes":
		err = application.CleanRecipes(ctx, out)
	case "extract":
		cmd := flag.NewFlagSet("extract", flag.ExitOnError)
		save := cmd.Bool("save", false, "Store the extracted recipe")
		_ = cmd.Parse(args)
		if cmd.NArg() != 1 {
			log.Fatalf("Usage: meal-planner extract [-save] <url>")
		}
		err = application.ExtractRecipe(ctx, out, cmd.Arg(0), *save)
	case "import-recipes":
		if len(args) != 1 {
			log.Fatalf("Usage: meal-planner import-recipes <file>")
		}
		err = application.ImportRecipes(ctx, out, args[0])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func serve(cfg *config.Config, application *app.App) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", cfg.Port, err)
	}
	srv := server.NewServer(port, application.ServerDeps())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func printUsage() {
	fmt.Println("Usage: meal-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve                      Run the HTTP API")
	fmt.Println("  plan-week [-start DATE]    Fill the weekly plan, keeping locked meals")
	fmt.Println("  plan                       Print the stored plan")
	fmt.Println("  shopping-list [-lang LANG] Print the shopping list (en or original)")
	fmt.Println("  today                      Print today's meals")
	fmt.Println("  history                    List generated plans")
	fmt.Println("  clean-recipes              Normalize and rewrite the recipe library")
	fmt.Println("  extract [-save] <url>      Extract a recipe from a video or page")
	fmt.Println("  import-recipes <file>      Import recipes from a JSON file")
}
