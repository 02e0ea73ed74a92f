package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type client struct {
	baseURL string
	http    *http.Client
	out     io.Writer
}

// apiError is returned for any non-2xx answer.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.Status, e.Body)
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)

	c := &client{out: out}

	rootCmd := &cobra.Command{
		Use:          "gotransfer-cli",
		Short:        "gotransfer CLI tool",
		Long:         `A command line interface for the gotransfer account and transfer API.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.baseURL = baseURL
			c.http = &http.Client{Timeout: timeout}
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the gotransfer API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(accountCmd(c), transferCmd(c), ledgerCmd(c))
	return rootCmd
}

func accountCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var (
		id      string
		balance string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(balance)
			if err != nil {
				return fmt.Errorf("invalid balance %q: %w", balance, err)
			}
			return c.do(http.MethodPost, "/v1/accounts", map[string]any{
				"accountId": id,
				"balance":   amount,
			})
		},
	}
	createCmd.Flags().StringVar(&id, "id", "", "Account id")
	createCmd.Flags().StringVar(&balance, "balance", "0", "Opening balance")
	createCmd.MarkFlagRequired("id")

	getCmd := &cobra.Command{
		Use:   "get <accountId>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(http.MethodGet, "/v1/accounts/"+url.PathEscape(args[0]), nil)
		},
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))
			return c.do(http.MethodGet, "/v1/accounts?"+q.Encode(), nil)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Accounts to skip")

	cmd.AddCommand(createCmd, getCmd, listCmd)
	return cmd
}

func transferCmd(c *client) *cobra.Command {
	var from, to, amount string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer money between two accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			return c.do(http.MethodPut, "/v1/accounts/transfer", map[string]any{
				"accountFromId": from,
				"accountToId":   to,
				"amount":        value,
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source account id")
	cmd.Flags().StringVar(&to, "to", "", "Destination account id")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to transfer")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("amount")

	return cmd
}

func ledgerCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := c.do(http.MethodGet, "/v1/ledger/consistency", nil)
			if err == nil {
				fmt.Fprintln(c.out, "Consistency check PASSED")
			}
			return err
		},
	}

	cmd.AddCommand(consistencyCmd)
	return cmd
}

// do sends the request and pretty-prints the JSON answer.
func (c *client) do(method, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	printJSON(c.out, respBody)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiError{Status: resp.StatusCode, Body: truncate(string(bytes.TrimSpace(respBody)), 200)}
	}
	return nil
}

func printJSON(w io.Writer, raw []byte) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		w.Write(raw)
		return
	}
	pretty.WriteByte('\n')
	w.Write(pretty.Bytes())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
