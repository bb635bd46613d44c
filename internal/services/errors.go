package services

import "errors"

var (
	ErrRecordNotFound    = errors.New("commercial record not found")
	ErrProjectNotFound   = errors.New("project not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrPartialMaterialization marks a failure after the ledger insert
	// succeeded: the ledger row exists but tasks or the debug snapshot may
	// be missing. Retryable server error; a reconciliation pass would need
	// the materialization key logged alongside it.
	ErrPartialMaterialization = errors.New("materialization partially applied")
)
