// Command blockchat-cli is the interactive client every BlockChat node
// operator runs against their own node's API port: create a transaction,
// update stake, view the last block, check balance/stake, or print help.
//
// It is the Go-native replacement for original_source/src/client.py's
// PyInquirer/Texttable REPL: github.com/peterh/liner reads each answer,
// github.com/fatih/color (over github.com/mattn/go-colorable, so colors
// survive on Windows consoles the way the teacher's cmd/gtos console
// commands rely on) renders prompts and results, and
// github.com/olekukonko/tablewriter replaces Texttable for the
// view-last-transactions table.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"
	"github.com/urfave/cli/v2"
)

var (
	out     = colorable.NewColorableStdout()
	bold    = color.New(color.Bold)
	info    = color.New(color.FgCyan)
	warn    = color.New(color.FgYellow)
	errc    = color.New(color.FgRed, color.Bold)
	divider = strings.Repeat("-", 72)
)

func main() {
	app := &cli.App{
		Name:  "blockchat-cli",
		Usage: "interactive client for a running blockchat node",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "127.0.0.1", Usage: "node API host"},
			&cli.StringFlag{Name: "p", Usage: "node API port", Required: true},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		errc.Fprintln(out, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cl := &client{base: "http://" + c.String("host") + ":" + c.String("p")}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	choices := []string{
		"New transaction", "Update stake", "View last transactions",
		"Show balance and stake", "Help", "Exit",
	}

	for {
		fmt.Fprintln(out, divider)
		choice, err := promptChoice(line, "What would you like to do?", choices)
		if err != nil {
			return nil
		}
		switch choice {
		case "New transaction":
			cl.newTransaction(line)
		case "Update stake":
			cl.updateStake(line)
		case "View last transactions":
			cl.viewLastTransactions()
		case "Show balance and stake":
			cl.showBalanceAndStake()
		case "Help":
			printHelp()
		case "Exit":
			return nil
		}
	}
}

func printHelp() {
	bold.Fprintln(out, "Help")
	fmt.Fprintln(out, divider)
	fmt.Fprintln(out, "- New transaction: send BCCs and/or a message to another node by id.")
	fmt.Fprintln(out, "  A 3% fee is charged on the amount sent, plus 1 BCC per message character.")
	fmt.Fprintln(out, "- Update stake: positive holds BCCs from your balance as stake; negative")
	fmt.Fprintln(out, "  frees stake back into your balance.")
	fmt.Fprintln(out, "- View last transactions: the transactions of the most recently committed block.")
	fmt.Fprintln(out, "- Show balance and stake: your wallet's current soft balance and stake.")
}

// client wraps the four /api/* calls blockchat-cli needs, against the
// node whose API port was given on the command line.
type client struct {
	base string
	http http.Client
}

type transactionResponse struct {
	Message string `json:"message"`
	Balance uint64 `json:"balance"`
	Stake   uint64 `json:"stake"`
}

func (cl *client) createTransaction(form url.Values) (transactionResponse, error) {
	var resp transactionResponse
	r, err := cl.http.PostForm(cl.base+"/api/create_transaction", form)
	if err != nil {
		return resp, err
	}
	defer r.Body.Close()
	err = json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

type transactionView struct {
	SenderAddress   string `json:"sender_address"`
	ReceiverAddress string `json:"receiver_address"`
	Amount          int64  `json:"amount"`
	Message         string `json:"message"`
	Nonce           uint64 `json:"nonce"`
	TransactionID   string `json:"transaction_id"`
}

func (cl *client) viewBlock() ([]transactionView, error) {
	r, err := cl.http.Get(cl.base + "/api/view_block")
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()
	var txs []transactionView
	err = json.NewDecoder(r.Body).Decode(&txs)
	return txs, err
}

func (cl *client) getBalance() (uint64, error) {
	r, err := cl.http.Get(cl.base + "/api/get_balance")
	if err != nil {
		return 0, err
	}
	defer r.Body.Close()
	var v map[string]uint64
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return 0, err
	}
	return v["balance"], nil
}

func (cl *client) getStake() (uint64, error) {
	r, err := cl.http.Get(cl.base + "/api/get_stake")
	if err != nil {
		return 0, err
	}
	defer r.Body.Close()
	var v map[string]uint64
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return 0, err
	}
	return v["stake"], nil
}

func (cl *client) newTransaction(line *liner.State) {
	bold.Fprintln(out, "New transaction")
	fmt.Fprintln(out, divider)
	warn.Fprintln(out, "You will be charged a 3% fee on the amount sent, plus 1 BCC per message character.")

	receiver, err := promptUint(line, "Receiver (type receiver's id): ")
	if err != nil {
		return
	}
	amount, err := promptInt(line, "Amount of BCCs to send (put 0 otherwise): ")
	if err != nil {
		return
	}
	message, err := line.Prompt("Message to send (optional): ")
	if err != nil {
		return
	}
	if amount == 0 && message == "" {
		warn.Fprintln(out, "Cannot create a transaction with zero BCCs and an empty message, aborting...")
		return
	}

	fmt.Fprintln(out, "\nConfirmation:")
	fmt.Fprintf(out, "Receiver node: %d\nAmount of BCCs: %d\n", receiver, amount)
	if message != "" {
		fmt.Fprintf(out, "Message: %s\n", message)
	}
	if !promptConfirm(line, "Do you confirm the above?") {
		warn.Fprintln(out, "Transaction aborted.")
		return
	}

	form := url.Values{
		"receiver": {strconv.FormatUint(receiver, 10)},
		"amount":   {strconv.FormatInt(amount, 10)},
		"message":  {message},
	}
	resp, err := cl.createTransaction(form)
	if err != nil {
		errc.Fprintln(out, "Node is not active. Try again later.")
		return
	}
	printTransactionResult(resp)
}

func (cl *client) updateStake(line *liner.State) {
	bold.Fprintln(out, "Update stake")
	fmt.Fprintln(out, divider)
	fmt.Fprintln(out, "Positive amount holds BCCs from your balance as stake.")
	fmt.Fprintln(out, "Negative amount frees that amount from stake back into your balance.")

	amount, err := promptInt(line, "Amount to (+)hold/(-)free: ")
	if err != nil {
		return
	}
	var confirmMsg string
	if amount > 0 {
		confirmMsg = fmt.Sprintf("%d additional BCCs will be held from your balance as stake", amount)
	} else {
		confirmMsg = fmt.Sprintf("%d BCCs will be freed from stake and added to your balance", -amount)
	}
	fmt.Fprintln(out, "\nConfirmation:")
	fmt.Fprintln(out, confirmMsg)
	if !promptConfirm(line, "Confirm?") {
		warn.Fprintln(out, "Transaction aborted.")
		return
	}

	form := url.Values{
		"receiver": {"0"},
		"amount":   {strconv.FormatInt(amount, 10)},
		"message":  {""},
		"stake":    {"true"},
	}
	resp, err := cl.createTransaction(form)
	if err != nil {
		errc.Fprintln(out, "Node is not active. Try again later.")
		return
	}
	printTransactionResult(resp)
}

func printTransactionResult(resp transactionResponse) {
	fmt.Fprintln(out)
	info.Fprintln(out, resp.Message)
	fmt.Fprintln(out, "----------------------------------")
	fmt.Fprintf(out, "Your current balance is: %d BCCs\n", resp.Balance)
	fmt.Fprintf(out, "Your current stake is: %d BCCs\n", resp.Stake)
	fmt.Fprintln(out, "Keep in mind balance and stake already count this transaction,")
	fmt.Fprintln(out, "even before it is included in a committed block.")
	fmt.Fprintln(out, "----------------------------------")
}

func (cl *client) viewLastTransactions() {
	bold.Fprintln(out, "Last transactions (last valid block in the blockchain)")
	fmt.Fprintln(out, divider)
	txs, err := cl.viewBlock()
	if err != nil {
		errc.Fprintln(out, "Node is not active. Try again later.")
		return
	}
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Sender address", "Receiver address", "BCCs sent", "Message", "Nonce"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	for _, t := range txs {
		table.Append([]string{
			t.SenderAddress, t.ReceiverAddress,
			strconv.FormatInt(t.Amount, 10), t.Message, strconv.FormatUint(t.Nonce, 10),
		})
	}
	table.Render()
}

func (cl *client) showBalanceAndStake() {
	bold.Fprintln(out, "Your balance and stake")
	fmt.Fprintln(out, divider)
	balance, err := cl.getBalance()
	if err != nil {
		errc.Fprintln(out, "Node is not active. Try again later.")
		return
	}
	stake, err := cl.getStake()
	if err != nil {
		errc.Fprintln(out, "Node is not active. Try again later.")
		return
	}
	fmt.Fprintf(out, "Your balance: %d BCCs\n", balance)
	fmt.Fprintf(out, "Your stake: %d BCCs\n", stake)
}

func promptChoice(line *liner.State, question string, choices []string) (string, error) {
	bold.Fprintln(out, question)
	for i, c := range choices {
		fmt.Fprintf(out, "  %d) %s\n", i+1, c)
	}
	for {
		s, err := line.Prompt("> ")
		if err != nil {
			return "", err
		}
		i, convErr := strconv.Atoi(strings.TrimSpace(s))
		if convErr == nil && i >= 1 && i <= len(choices) {
			return choices[i-1], nil
		}
		warn.Fprintln(out, "Please enter a number from the list above.")
	}
}

func promptUint(line *liner.State, prompt string) (uint64, error) {
	for {
		s, err := line.Prompt(prompt)
		if err != nil {
			return 0, err
		}
		v, convErr := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
		if convErr == nil {
			return v, nil
		}
		warn.Fprintln(out, "Please enter a non-negative integer.")
	}
}

func promptInt(line *liner.State, prompt string) (int64, error) {
	for {
		s, err := line.Prompt(prompt)
		if err != nil {
			return 0, err
		}
		v, convErr := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if convErr == nil {
			return v, nil
		}
		warn.Fprintln(out, "Please enter a number.")
	}
}

func promptConfirm(line *liner.State, question string) bool {
	s, err := line.Prompt(question + " [y/N] ")
	if err != nil {
		return false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}
