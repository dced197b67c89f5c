// Package engine wires the statai commands together: it resolves the API key,
// reads the inputs, builds the prompt, sends it through the configured
// provider and reports the outcome on the command's output.
//
// Every command method returns a Kind describing how it ended. Failures are
// reported as messages rather than returned, so the CLIs only decide the
// exit status.
package engine
