/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, g.Close()) })
	return g
}

func TestAddAndListEdges(t *testing.T) {
	g := openGraph(t)
	require.NoError(t, g.AddEdge("urn:ms:dataset:b", "upstreamLineage", "urn:ms:dataset:a"))
	require.NoError(t, g.AddEdge("urn:ms:dataset:b", "upstreamLineage", "urn:ms:dataset:c"))
	require.NoError(t, g.AddEdge("urn:ms:dataset:d", "ownedBy", "urn:ms:corpuser:admin"))

	edges, err := g.Edges("urn:ms:dataset:b")
	require.NoError(t, err)
	require.ElementsMatch(t, [][2]string{
		{"upstreamLineage", "urn:ms:dataset:a"},
		{"upstreamLineage", "urn:ms:dataset:c"},
	}, edges)

	n, err := g.Count()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	// Re-adding an edge is an upsert.
	require.NoError(t, g.AddEdge("urn:ms:dataset:b", "upstreamLineage", "urn:ms:dataset:a"))
	n, err = g.Count()
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestAddEdgeRejectsEmptyComponents(t *testing.T) {
	g := openGraph(t)
	require.Error(t, g.AddEdge("", "rel", "dst"))
	require.Error(t, g.AddEdge("src", "", "dst"))
	require.Error(t, g.AddEdge("src", "rel", ""))
}

func TestClearIsIdempotent(t *testing.T) {
	g := openGraph(t)
	require.NoError(t, g.AddEdge("urn:ms:dataset:a", "ownedBy", "urn:ms:corpuser:x"))

	require.NoError(t, g.Clear(true))
	n, err := g.Count()
	require.NoError(t, err)
	require.Equal(t, 0, n)

	require.NoError(t, g.Clear(true))
}

func TestLegacyRelationshipsLifecycle(t *testing.T) {
	g := openGraph(t)

	has, err := g.HasLegacyRelationships()
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, g.AddLegacyEdge("urn:ms:dataset:old", "DownstreamOf", "urn:ms:dataset:older"))
	require.NoError(t, g.AddEdge("urn:ms:dataset:new", "ownedBy", "urn:ms:corpuser:x"))

	has, err = g.HasLegacyRelationships()
	require.NoError(t, err)
	require.True(t, has)

	dropped, err := g.DropLegacyRelationships()
	require.NoError(t, err)
	require.Equal(t, 1, dropped)

	// Current edges are untouched, and a second drop is a no-op.
	n, err := g.Count()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	dropped, err = g.DropLegacyRelationships()
	require.NoError(t, err)
	require.Equal(t, 0, dropped)
}
