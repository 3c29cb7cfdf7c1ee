package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/RXLU5x/translate-image-text-cloud/config"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/cntextclient"
	"github.com/joho/godotenv"
)

func main() {
	// Config
	if _, err := os.Stat(".env"); err == nil {
		err = godotenv.Load()
		if err != nil {
			log.Fatalf("config error: %s", err)
		}
	}

	cfg, err := config.NewClient()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	addr := flag.String("addr", cfg.ServerAddr, "server address")
	user := flag.String("user", "", "username to sign in with")
	file := flag.String("file", "", "image to translate")
	to := flag.String("to", "en", "target language")
	flag.Parse()

	if *user == "" || *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	c, err := cntextclient.New(*addr, cntextclient.PollInterval(cfg.PollInterval))
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	if err := run(ctx, c, *user, *file, *to); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *cntextclient.Client, user, file, to string) error {
	sessionID, err := c.SignIn(ctx, user)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.SignOut(context.WithoutCancel(ctx), sessionID); err != nil {
			log.Print(err)
		}
	}()

	submissionID, err := c.SubmitFile(ctx, sessionID, file, to)
	if err != nil {
		return err
	}
	log.Printf("submission %s accepted", submissionID)

	res, err := c.WaitResult(ctx, sessionID, submissionID)
	if err != nil {
		return err
	}

	fmt.Printf("%s -> %s\n%s\n", res.From, res.To, res.Text)

	return nil
}
