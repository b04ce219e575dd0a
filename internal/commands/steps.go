package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/trustledger/internal/canonical"
	"github.com/cleared-dev/trustledger/internal/chain"
	"github.com/cleared-dev/trustledger/internal/model"
	"github.com/cleared-dev/trustledger/internal/pipeline"
)

func newIngestCommand(g *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Canonicalize inbox extracts and queue their anchors",
		Args:  cobra.NoArgs,
		RunE: withSession(g, func(cmd *cobra.Command, s *session) error {
			results, err := s.pipeline.Ingest(s.ctx, all)
			out := cmd.OutOrStdout()
			switch {
			case errors.Is(err, pipeline.ErrNoInbox):
				fmt.Fprintln(out, "nothing to ingest")
				return nil
			case errors.Is(err, canonical.ErrEmptySource):
				fmt.Fprintln(out, "nothing to ingest: extract has no records")
				return nil
			case err != nil:
				return err
			}
			printIngested(out, results)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&all, "all", false, "ingest every inbox file instead of the latest")

	return cmd
}

func newReconcileCommand(g *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Build the ledger and match it against canonical extracts",
		Args:  cobra.NoArgs,
		RunE: withSession(g, func(cmd *cobra.Command, s *session) error {
			results, err := s.pipeline.Reconcile(s.ctx, all)
			out := cmd.OutOrStdout()
			if errors.Is(err, pipeline.ErrNoCanonical) {
				fmt.Fprintln(out, "nothing to reconcile")
				return nil
			}
			if err != nil {
				return err
			}
			printReconciled(out, results)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&all, "all", false, "reconcile every canonical extract instead of the latest")

	return cmd
}

func newAnchorCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "anchor",
		Short: "Append a block with all pending anchors",
		Args:  cobra.NoArgs,
		RunE: withSession(g, func(cmd *cobra.Command, s *session) error {
			b, err := s.pipeline.Anchor(s.ctx)
			out := cmd.OutOrStdout()
			if errors.Is(err, chain.ErrNoPendingAnchors) {
				fmt.Fprintln(out, "nothing to anchor")
				return nil
			}
			if err != nil {
				return err
			}
			printBlock(out, b)
			return nil
		}),
	}
}

func newVerifyCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check chain linkage and hashes",
		Args:  cobra.NoArgs,
		RunE: withSession(g, func(cmd *cobra.Command, s *session) error {
			n, err := s.pipeline.Verify(s.ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chain ok: %d blocks\n", n)
			return nil
		}),
	}
}

func newRunAllCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run-all",
		Short: "Ingest, reconcile and anchor everything pending",
		Args:  cobra.NoArgs,
		RunE: withSession(g, func(cmd *cobra.Command, s *session) error {
			sum, err := s.pipeline.RunAll(s.ctx)
			out := cmd.OutOrStdout()
			printIngested(out, sum.Ingested)
			printReconciled(out, sum.Reconciled)
			if err != nil {
				return err
			}
			if sum.Block == nil {
				fmt.Fprintln(out, "nothing to anchor")
				return nil
			}
			printBlock(out, *sum.Block)
			return nil
		}),
	}
}

func newStatusCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue sizes and the chain tip",
		Args:  cobra.NoArgs,
		RunE: withSession(g, func(cmd *cobra.Command, s *session) error {
			st, err := s.pipeline.Status(s.ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "inbox:            %d\n", st.InboxFiles)
			fmt.Fprintf(out, "canonical:        %d\n", st.CanonicalFiles)
			fmt.Fprintf(out, "pending anchors:  %d\n", st.PendingAnchors)
			fmt.Fprintf(out, "archived anchors: %d\n", st.ArchivedAnchors)
			if st.Height < 0 {
				fmt.Fprintln(out, "chain:            empty")
			} else {
				fmt.Fprintf(out, "chain:            height %d (%s)\n", st.Height, st.LastHash)
			}
			return nil
		}),
	}
}

func printIngested(w io.Writer, results []pipeline.IngestResult) {
	for _, r := range results {
		fmt.Fprintf(w, "ingested %s -> %s (%d records, sha256 %s)\n", r.Source, r.Canonical, r.Records, r.SHA256)
	}
}

func printReconciled(w io.Writer, results []pipeline.ReconcileResult) {
	for _, r := range results {
		s := r.Summary
		fmt.Fprintf(w, "reconciled %s: %d matched, %d manual_review, %d unmatched (%.1f%% matched)\n",
			r.Canonical, s.Matched, s.ManualReview, s.Unmatched, s.MatchRate())
	}
}

func printBlock(w io.Writer, b model.Block) {
	fmt.Fprintf(w, "block %d appended: %d anchors, hash %s\n", b.Height, b.TxCount, b.BlockHash)
}
