// Command balances is a reference MCP tool server that exposes account
// tools over stdio. It is the demo target for cmd/probe and a realistic
// external server for manual testing:
//
//	probe -config probe.yaml "What is my checking balance?"
//
// with a server entry of:
//
//	servers:
//	  - name: balances
//	    command: go
//	    args: [run, ./cmd/balances]
package main

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var accounts = map[string]float64{
	"checking": 42.50,
	"savings":  1890.00,
}

func main() {
	s := server.NewMCPServer("balances", "1.0.0",
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("get_balance",
			mcp.WithDescription("Get the balance of a named account"),
			mcp.WithString("account",
				mcp.Required(),
				mcp.Description("Account name, e.g. checking or savings"),
			),
		),
		getBalance,
	)

	s.AddTool(
		mcp.NewTool("list_accounts",
			mcp.WithDescription("List the names of all known accounts"),
		),
		listAccounts,
	)

	if err := server.ServeStdio(s); err != nil {
		log.Fatal(err)
	}
}

func getBalance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	account := req.GetString("account", "")
	balance, ok := accounts[account]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown account: %q", account)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(`{"account":%q,"balance":%.2f}`, account, balance)), nil
}

func listAccounts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := make([]string, 0, len(accounts))
	for name := range accounts {
		names = append(names, name)
	}
	sort.Strings(names)

	out := "["
	for i, name := range names {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%q", name)
	}
	out += "]"
	return mcp.NewToolResultText(out), nil
}
