package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/baditaflorin/go_typing_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_typing_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_typing_similarity/internal/core/feedback"
	"github.com/baditaflorin/go_typing_similarity/pkg/scorer"
	"github.com/spf13/cobra"
)

const (
	outputText = "text"
	outputJSON = "json"
)

type rootOptions struct {
	output         string
	threshold      float64
	minLengthRatio float64
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "typingsim",
		Short:         "Score typed text against a prompt",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if opts.output != outputText && opts.output != outputJSON {
				return fmt.Errorf("unknown output format %q (want text or json)", opts.output)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.output, "output", "o", outputText, "Output format: text or json")
	flags.Float64Var(&opts.threshold, "threshold", 0.6, "Similarity a decision must exceed")
	flags.Float64Var(&opts.minLengthRatio, "min-length-ratio", 0.6, "Share of the prompt that must be typed before deciding")

	cmd.AddCommand(newDistanceCommand(opts))
	cmd.AddCommand(newSimilarityCommand(opts))
	cmd.AddCommand(newAccuracyCommand(opts))
	cmd.AddCommand(newDecideCommand(opts))
	cmd.AddCommand(newFeedbackCommand(opts))
	return cmd
}

func (o *rootOptions) scorer(extra ...scorer.ScorerOption) (*scorer.Scorer, error) {
	return scorer.New(append([]scorer.ScorerOption{
		scorer.WithPortLogger(logger.NewNopLogger()),
		scorer.WithThreshold(o.threshold),
		scorer.WithMinLengthRatio(o.minLengthRatio),
	}, extra...)...)
}

// print writes v as JSON, or text as-is, depending on the output flag.
func (o *rootOptions) print(w io.Writer, text string, v interface{}) error {
	if o.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

func newDistanceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "distance <a> <b>",
		Short: "Print the Levenshtein distance between two texts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.scorer()
			if err != nil {
				return err
			}
			d := s.EditDistance(args[0], args[1])
			return opts.print(cmd.OutOrStdout(), fmt.Sprint(d), map[string]int{"distance": d})
		},
	}
}

func newSimilarityCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "similarity <a> <b>",
		Short: "Print the edit-distance similarity of two texts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.scorer()
			if err != nil {
				return err
			}
			sim := s.Similarity(args[0], args[1])
			return opts.print(cmd.OutOrStdout(), fmt.Sprintf("%.4f", sim), map[string]float64{"similarity": sim})
		},
	}
}

func newAccuracyCommand(opts *rootOptions) *cobra.Command {
	var fold bool
	cmd := &cobra.Command{
		Use:   "accuracy <reference> <candidate>",
		Short: "Print the share of reference positions the candidate reproduces",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.scorer()
			if err != nil {
				return err
			}
			acc := s.PositionalAccuracy(args[0], args[1])
			if fold {
				acc = s.PositionalAccuracyFold(args[0], args[1])
			}
			return opts.print(cmd.OutOrStdout(), fmt.Sprintf("%.4f", acc), map[string]interface{}{
				"accuracy": acc,
				"fold":     fold,
			})
		},
	}
	cmd.Flags().BoolVar(&fold, "fold", false, "Compare case-insensitively")
	return cmd
}

func newDecideCommand(opts *rootOptions) *cobra.Command {
	var caseSensitive bool
	cmd := &cobra.Command{
		Use:   "decide <reference> <candidate>",
		Short: "Decide whether the candidate authenticates against the reference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra []scorer.ScorerOption
			if caseSensitive {
				extra = append(extra, scorer.WithNormalizer(normalizer.NewIdentityNormalizer()))
			}
			s, err := opts.scorer(extra...)
			if err != nil {
				return err
			}
			d := s.Decide(args[1], args[0])

			text := fmt.Sprintf("%s (score %.4f, threshold %.2f)", d.Outcome, d.Score, d.Threshold)
			if d.Insufficient() {
				text = fmt.Sprintf("%s (%d/%d characters needed)", d.Outcome, d.CandidateLength, int(math.Ceil(d.RequiredLength)))
			}
			return opts.print(cmd.OutOrStdout(), text, map[string]interface{}{
				"outcome":          d.Outcome.String(),
				"score":            d.Score,
				"threshold":        d.Threshold,
				"source":           string(d.Source),
				"candidate_length": d.CandidateLength,
				"reference_length": d.ReferenceLength,
				"required_length":  d.RequiredLength,
			})
		},
	}
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "Compare without folding case")
	return cmd
}

func newFeedbackCommand(opts *rootOptions) *cobra.Command {
	var (
		profileName string
		elapsed     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "feedback <reference> <typed>",
		Short: "Print live typing feedback for a partially typed prompt",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, ok := feedback.ProfileByName(profileName)
			if !ok {
				return fmt.Errorf("unknown profile %q (want training or authentication)", profileName)
			}
			s, err := opts.scorer()
			if err != nil {
				return err
			}
			fb := s.Feedback(args[0], args[1], elapsed, profile)

			text := fmt.Sprintf("accuracy %.0f%% (%s), progress %.0f%%, %d wpm, ready %t",
				fb.Accuracy, fb.Tier, fb.Progress, fb.WPM, fb.Ready)
			return opts.print(cmd.OutOrStdout(), text, fb)
		},
	}
	cmd.Flags().StringVar(&profileName, "profile", feedback.Training.Name, "Feedback profile: training or authentication")
	cmd.Flags().DurationVar(&elapsed, "elapsed", 0, "Time spent typing, for the words-per-minute figure")
	return cmd
}
