// Package engine provides the script execution engine.
//
// The engine runs untrusted user scripts against a tabular dataset inside
// an embedded Starlark interpreter with a restricted global scope: scripts
// see only the dataset, a fixed set of library aliases (math, json, plot,
// table) and Starlark's safe builtins. There is no filesystem, network or
// clock capability; the few suggestively named builtins (open, fetch, ...)
// are stubs that fail with a permission error naming the capability.
//
// Every run is independent: the engine executes against a private copy of
// the caller's Environment, captures printed output in order, enforces a
// wall-clock budget through a watchdog that force-cancels the interpreter,
// and classifies the script's final bindings into tables, figures and
// plain variables by value shape. Run never panics and never returns an
// error; every failure mode terminates in a well-formed Result.
//
// Usage:
//
//	env := engine.NewEnvironment("df", tbl)
//	eng := engine.New(logger)
//	res := eng.Run(ctx, script, env, 30*time.Second)
package engine
