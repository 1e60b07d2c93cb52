package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stegtext/internal/corpus"
)

const doctorProbeText = "De rente steeg in het derde kwartaal met 0,25 procentpunt."

type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check corpus, oracles, and configuration",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, sess.Close()) }()

			checks := []doctorCheck{
				sess.checkCorpus(cmd.Context()),
				sess.checkScorer(cmd.Context()),
				sess.checkGenerator(cmd.Context()),
			}

			failed := 0
			for _, check := range checks {
				if !check.OK {
					failed++
				}
			}
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, checks); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(checks))
				for _, check := range checks {
					status := "ok"
					if !check.OK {
						status = "FAIL"
					}
					rows = append(rows, []string{check.Name, status, check.Detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			}
			if failed > 0 {
				return fmt.Errorf("doctor: %d of %d checks failed", failed, len(checks))
			}
			return nil
		},
	}
}

func (s *session) checkCorpus(ctx context.Context) doctorCheck {
	check := doctorCheck{Name: "corpus"}
	store, err := s.corpusStore(ctx)
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	texts, err := store.CoverTexts(ctx, s.cfg.Corpus.Category)
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	if len(texts) == 0 {
		check.Detail = fmt.Sprintf("no articles in category %q (key %q)", s.cfg.Corpus.Category, corpus.CategoryKey(s.cfg.Corpus.Category))
		return check
	}
	check.OK = true
	check.Detail = fmt.Sprintf("%d articles in %s", len(texts), s.cfg.Corpus.Category)
	return check
}

func (s *session) checkScorer(ctx context.Context) doctorCheck {
	check := doctorCheck{Name: "perplexity"}
	scorer, err := s.scorer(ctx)
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.PerplexityTimeout())
	defer cancel()
	score, err := scorer.Score(callCtx, doctorProbeText)
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	check.OK = true
	check.Detail = fmt.Sprintf("%s scored probe at %s", s.cfg.Perplexity.BaseURL, formatFloat(score, 2))
	return check
}

func (s *session) checkGenerator(ctx context.Context) doctorCheck {
	check := doctorCheck{Name: "llm"}
	client, err := s.llmClient()
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout())
	defer cancel()
	if err := client.HealthCheck(callCtx); err != nil {
		check.Detail = err.Error()
		return check
	}
	check.OK = true
	check.Detail = s.cfg.LLM.Model + " reachable"
	return check
}
