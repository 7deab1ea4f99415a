package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mixelka/otpfill/internal/messaging"
	"github.com/mixelka/otpfill/pkg/models"
)

const usage = `usage: otpctl [flags] <command> [args]

commands:
  accounts         list linked accounts
  add              link a new account in the browser
  remove <email>   unlink an account
  otp [email]      show recent codes, optionally for one account
  fill <code>      enter a code on the active page
`

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("LISTEN_ADDR", "127.0.0.1:8766"), "daemon address")
	timeout := flag.Duration("timeout", messaging.DefaultTimeout, "request timeout")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	req, err := buildRequest(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	// Interactive linking waits for the consent screen
	if req.Type == messaging.AddAccount && *timeout < 5*time.Minute {
		*timeout = 5 * time.Minute
	}

	client := messaging.NewClient(*addr, *timeout)
	resp := client.Send(context.Background(), req)
	if !resp.OK {
		fmt.Fprintln(os.Stderr, "error:", resp.Error)
		os.Exit(1)
	}

	printResponse(req.Type, resp)
}

func buildRequest(args []string) (messaging.Request, error) {
	if len(args) == 0 {
		return messaging.Request{}, fmt.Errorf("missing command")
	}

	switch args[0] {
	case "accounts":
		return messaging.Request{Type: messaging.GetAccounts}, nil
	case "add":
		return messaging.Request{Type: messaging.AddAccount}, nil
	case "remove":
		if len(args) < 2 {
			return messaging.Request{}, fmt.Errorf("remove needs an email")
		}
		return messaging.Request{Type: messaging.RemoveAccount, Email: args[1]}, nil
	case "otp":
		req := messaging.Request{Type: messaging.GetOTP}
		if len(args) > 1 {
			req.FilterEmail = args[1]
		}
		return req, nil
	case "fill":
		if len(args) < 2 {
			return messaging.Request{}, fmt.Errorf("fill needs a code")
		}
		return messaging.Request{Type: messaging.FillCode, Code: args[1]}, nil
	default:
		return messaging.Request{}, fmt.Errorf("unknown command %q", args[0])
	}
}

func printResponse(kind messaging.MessageType, resp messaging.Response) {
	switch kind {
	case messaging.GetAccounts:
		if len(resp.Accounts) == 0 {
			fmt.Println("no linked accounts")
		}
		for _, a := range resp.Accounts {
			fmt.Printf("%s\t%s\n", a.Email, a.Name)
		}
	case messaging.AddAccount:
		if resp.Account != nil {
			fmt.Printf("linked %s (%s)\n", resp.Account.Email, resp.Account.Name)
		}
	case messaging.GetOTP:
		printCodes(resp.Codes)
	default:
		if resp.Message != "" {
			fmt.Println(resp.Message)
		} else {
			fmt.Println("ok")
		}
	}
}

func printCodes(codes []models.Candidate) {
	if len(codes) == 0 {
		fmt.Println("no codes found")
		return
	}
	for _, c := range codes {
		at := time.UnixMilli(c.TimestampMs).Format(time.TimeOnly)
		fmt.Printf("%s\t%s\t%s\t%s\n", c.Code, at, c.SenderName, c.AccountEmail)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
