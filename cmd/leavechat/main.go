package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	lbconfig "github.com/amann12/ManageLeave/config"
	"github.com/amann12/ManageLeave/internal/connectutil"
	"github.com/amann12/ManageLeave/pkg/api"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: reading .env: %v", err)
	}

	cfg, err := env.ParseAs[lbconfig.ChatClientConfig]()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	c := &chat{
		client: api.NewClient(&http.Client{Timeout: 30 * time.Second}, cfg.ServerURL,
			connectutil.DefaultClientOptions()...),
		conversationID: uuid.NewString(),
		out:            os.Stdout,
	}

	fmt.Printf("connected to %s, conversation %s (type /help)\n", cfg.ServerURL, c.conversationID)
	if err := c.handle(ctx, ""); err != nil {
		log.Fatalf("starting conversation: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("you> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		if strings.TrimSpace(line) == "/quit" {
			return
		}
		if err := c.handle(ctx, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
