package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrInvalidArgument marks a rejected caller input, such as an empty
	// message or a non-positive k.
	ErrInvalidArgument = goerr.New("invalid argument")

	// ErrInvalidConfig marks a configuration the system refuses to run
	// with, such as overlap >= chunk size or an embedding dimension
	// mismatch.
	ErrInvalidConfig = goerr.New("invalid configuration")

	// ErrEmbeddingUnavailable marks an embedding provider failure that
	// persisted through the retry.
	ErrEmbeddingUnavailable = goerr.New("embedding provider unavailable")

	// ErrGenerationFailed marks a failed or empty generation response.
	ErrGenerationFailed = goerr.New("generation failed")

	// ErrDuplicateAgent marks an attempt to register an agent id twice.
	ErrDuplicateAgent = goerr.New("duplicate agent id")

	// ErrNotFound marks a lookup of a memory that does not exist.
	ErrNotFound = goerr.New("not found")
)
