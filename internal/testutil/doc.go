// Package testutil provides deterministic stand-ins for the pipeline's
// collaborators: sequential cycle ids, scripted change sources and fake pgx
// rows. The scenario harness and package tests share them.
package testutil
