// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/oracle/config"
	"github.com/luxfi/oracle/task"
)

func TestAbstractionChainSubmitterSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newAbstractionChainSubmitter(config.AbstractionChain{
		DirectoryNodeURLPool: []string{srv.URL},
		BlockchainRID:        "rid",
	})
	require.NoError(t, s.Submit(map[string]any{"events": []any{}}))
}

func TestAbstractionChainSubmitterConflictIsDuplicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	s := newAbstractionChainSubmitter(config.AbstractionChain{
		DirectoryNodeURLPool: []string{srv.URL},
	})
	err := s.Submit(map[string]any{})
	require.Error(t, err)
	var dup *task.DuplicateSubmissionError
	require.ErrorAs(t, err, &dup)
}

func TestAbstractionChainSubmitterServerErrorIsPlainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newAbstractionChainSubmitter(config.AbstractionChain{
		DirectoryNodeURLPool: []string{srv.URL},
	})
	err := s.Submit(map[string]any{})
	require.Error(t, err)
	var dup *task.DuplicateSubmissionError
	require.False(t, errors.As(err, &dup), "500 must not be treated as a duplicate submission")
}

func TestAbstractionChainSubmitterRejectsEmptyPool(t *testing.T) {
	s := newAbstractionChainSubmitter(config.AbstractionChain{})
	require.Error(t, s.Submit(map[string]any{}))
}
