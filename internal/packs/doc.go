// Package packs provides the tool pack system: named collections of tools
// exposed to agents over MCP.
//
// # Overview
//
// A pack groups related tools under one ID (projects, risks, vendors,
// inventory, compliance). Every tool runs in-process: its handler validates
// arguments, calls the VerifyWise API through the access layer, and returns
// JSON for the agent.
//
// # Architecture
//
// The pack system has two components:
//
//   - Registry: tracks registered packs and enforces globally unique
//     tool names
//   - Dispatcher: executes a named tool with a correlation ID and a call
//     timeout, and converts handler errors into agent-safe messages
//
// # Tool Dispatch
//
// When an agent calls a tool, the dispatcher:
//
//  1. Looks up the tool by name in the registry
//  2. Executes the handler under the call timeout
//  3. Renders any failure by its error category (auth, not-found,
//     invalid-input, timeout, unavailable, remote)
//
// An unknown tool name is a protocol-level error; a handler failure is a
// normal result carrying an error message, so agents can read and react
// to it.
//
// # Usage
//
//	registry := packs.NewRegistry(logger)
//	registry.RegisterPack(tools.ProjectsPack(client))
//	dispatcher := packs.NewDispatcher(packs.DispatcherConfig{Registry: registry, Logger: logger})
//	result, err := dispatcher.Call(ctx, "list_projects", input, requestID)
package packs
