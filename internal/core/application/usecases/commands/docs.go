// Package commands contains the validated inputs of the state-changing
// fulfillment operations. Each command is built through its constructor,
// which reports every invalid field at once; the dispatch coordinator only
// accepts constructed commands.
package commands
