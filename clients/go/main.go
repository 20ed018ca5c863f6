// CLI client for the freelancer messaging API.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chetan5734v/freelancer/clients/go/freelancer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("FREELANCER_URL")
	client := freelancer.NewClient(baseURL)
	client.Token = os.Getenv("FREELANCER_TOKEN")
	cmd := os.Args[1]

	switch cmd {
	case "signup":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: freelancer signup <username> <password>")
			os.Exit(1)
		}
		user, err := client.Signup("", "", os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("Registered as %s (%d tokens)\nToken: %s\n", user.Username, user.Tokens, client.Token)

	case "signin":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: freelancer signin <username> <password>")
			os.Exit(1)
		}
		user, err := client.Signin(os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("Signed in as %s\nToken: %s\n", user.Username, client.Token)

	case "jobs":
		jobs, err := client.Jobs()
		exitOnError(err)
		for _, j := range jobs {
			fmt.Printf("  %s  [%s] %s (by %s)\n", j.ID, j.Status, j.Title, j.PostedBy)
		}

	case "post":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: freelancer post <title> [description]")
			os.Exit(1)
		}
		desc := ""
		if len(os.Args) > 3 {
			desc = os.Args[3]
		}
		job, err := client.CreateJob(os.Args[2], "", desc)
		exitOnError(err)
		fmt.Printf("Posted job %s\n", job.ID)

	case "apply":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: freelancer apply <job-id>")
			os.Exit(1)
		}
		res, err := client.Apply(os.Args[2])
		exitOnError(err)
		fmt.Printf("Applied. Room: %s (balance %d)\n", res.RoomID, res.NewBalance)

	case "eligible":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: freelancer eligible <job-id>")
			os.Exit(1)
		}
		res, err := client.CheckEligibility(os.Args[2])
		exitOnError(err)
		printJSON(res)

	case "send":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: freelancer send <room-id> <text>")
			os.Exit(1)
		}
		thread, err := client.SendMessage(os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("Sent. Thread now has %d messages\n", len(thread.Messages))

	case "read":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: freelancer read <room-id>")
			os.Exit(1)
		}
		thread, err := client.Messages(os.Args[2])
		exitOnError(err)
		for _, msg := range thread.Messages {
			fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Format("2006-01-02 15:04:05"), msg.Sender, msg.Text)
		}

	case "balance":
		tokens, err := client.Balance()
		exitOnError(err)
		fmt.Printf("Balance: %d tokens\n", tokens)

	case "buy":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: freelancer buy <basic|standard|premium|pro>")
			os.Exit(1)
		}
		balance, err := client.PurchaseTokens(os.Args[2])
		exitOnError(err)
		fmt.Printf("New balance: %d tokens\n", balance)

	case "notifications":
		list, err := client.Notifications()
		exitOnError(err)
		for _, n := range list {
			marker := " "
			if !n.Read {
				marker = "*"
			}
			fmt.Printf("%s %s: %s\n", marker, n.Title, n.Message)
		}

	case "listen":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: freelancer listen <room-id>")
			os.Exit(1)
		}
		sock, err := client.Connect()
		exitOnError(err)
		defer sock.Close()
		exitOnError(sock.JoinRoom(os.Args[2]))
		for {
			ev, err := sock.ReadEvent()
			exitOnError(err)
			fmt.Printf("%s %s\n", ev.Event, string(ev.Data))
		}

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: freelancer <command> [args]

Commands:
  signup <username> <password>   Register an account
  signin <username> <password>   Sign in
  jobs                           List jobs
  post <title> [description]     Post a job (costs 1 token)
  apply <job-id>                 Apply for a job (costs 1 token)
  eligible <job-id>              Check messaging eligibility
  send <room-id> <text>          Send a message
  read <room-id>                 Read a room's history
  balance                        Show token balance
  buy <package>                  Buy a token package
  notifications                  List notifications
  listen <room-id>               Stream room events

Set FREELANCER_URL and FREELANCER_TOKEN in the environment.`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
