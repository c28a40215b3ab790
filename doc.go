// Package probe drives a language model through bounded, tool-calling
// conversations against externally running MCP tool servers and records a
// structured, turn-indexed trace of what happened.
//
// The root package holds the shared data model: conversation messages, tool
// descriptors, trace types (Turn, ToolInvocationRecord) and the categorized
// error taxonomy. Behavior lives in the subpackages:
//
//   - server: tool server process lifecycle and readiness strategies
//   - registry: merged tool namespace and dispatch
//   - gateway: provider backends (Anthropic, OpenAI, Google)
//   - engine: the conversation turn loop and result recording
//   - session: ordered conversation history across invocations
//   - model: token pricing for aggregate cost counters
//
// A minimal run wires those together:
//
//	mgr := server.NewManager()
//	defer mgr.StopAll()
//
//	h, err := mgr.Start(ctx, server.Config{
//	    Name:      "balances",
//	    Command:   "./balances",
//	    Readiness: server.NamedTools("get_balance"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reg, err := registry.Build(ctx, []registry.Caller{h})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	provider, err := gateway.New(ctx, probe.ProviderAnthropic, "claude-sonnet-4-5",
//	    gateway.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng := engine.New(provider, reg)
//	result, _ := eng.Run(ctx, "What is my checking balance?")
//	fmt.Println(result.FinalText)
package probe
