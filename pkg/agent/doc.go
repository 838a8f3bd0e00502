// Package agent defines the contract every kernel agent satisfies and the
// registry the kernel builds from them.
//
// Invariants:
// - Execute returns a Result for every action, including unknown ones. Unknown
//   actions are reported through the "error" key, never through the error return.
// - Capabilities are fixed at construction and only ever read by the core.
// - A Registry is filled once at kernel startup and sealed before use.
//
// Usage:
//
//	reg := agent.NewRegistry()
//	_ = reg.Register(myAgent)
//	reg.Seal()
//	a, ok := reg.Get("filesystem")
//	if ok {
//		result, _ := a.Execute(ctx, "read_emails", agent.Params{"category": "work"})
//		_ = result
//	}
package agent
