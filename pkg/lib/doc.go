// Package lib provides a Go SDK to manage phenohunter plants and bulk operations
// programmatically, without shelling out to the phenohunter CLI.
//
// # Quick Start
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Move every plant of tent-a to flowering.
//	job, err := client.RunBulk(ctx, lib.RunBulkOpts{
//	    Kind:  lib.OperationKindUpdateStage,
//	    Input: lib.OperationInput{Value: "flowering"},
//	    Where: lib.PlantFilter{Location: "tent-a"},
//	})
//
//	// Changed our mind.
//	entry, err := client.Undo(ctx, false)
//
// # Bulk jobs
//
// A client runs one bulk job at a time, [Client.RunBulk] returns an error
// matching [ErrConcurrency] while another job is running. Set [Config].ProgressHook
// to follow the jobs while they run, or poll [Client.Progress].
//
// # Errors
//
// Errors can be checked with [errors.Is] against the sentinel errors of this
// package, like [ErrNotFound] or [ErrNoUndoableOperation].
package lib
