package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"aggregate-news/config"
	"aggregate-news/db"
	"aggregate-news/job"
	"aggregate-news/misc"
	"aggregate-news/service"
)

var jobKinds = map[string]job.Kind{
	"collect": job.Collect,
	"process": job.Process,
	"relate":  job.Relate,
	"analyze": job.Analyze,
}

func main() {
	days := flag.Int("days", 1, "collection window in days")
	feedsFile := flag.String("feeds", "feeds.csv", "feeds file for the seed command")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: aggregate-news [flags] <collect|process|relate|analyze|seed>")
		os.Exit(2)
	}
	command := flag.Arg(0)

	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.PushGatewayURL != "" {
		misc.InitMetrics(cfg.PushGatewayURL, "aggregate-news")
	}

	dbConnect := db.Connect(cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	if command == "seed" {
		if err := seed(dbConnect, *feedsFile); err != nil {
			misc.Fatal("seed", "seed", err)
		}
		return
	}

	kind, ok := jobKinds[command]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		os.Exit(2)
	}

	params := &config.Params{
		DB:         dbConnect,
		Recognizer: &service.HTTPRecognizer{Endpoint: cfg.NerEndpoint},
	}
	if err := job.Run(params, kind, *days); err != nil {
		misc.Fatal(command, fmt.Sprintf("%s job", command), err)
	}
	misc.PushMetrics()
}
