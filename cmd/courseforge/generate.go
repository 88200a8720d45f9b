package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/courseforge/internal/api"
	"github.com/jackzampolin/courseforge/internal/course"
	"github.com/jackzampolin/courseforge/internal/coursegen"
	"github.com/jackzampolin/courseforge/internal/generation"
	"github.com/jackzampolin/courseforge/internal/providers"
)

var (
	generateDeeper string
	generateOut    string
	generateRaw    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [topic...]",
	Short: "Generate a course locally without a server",
	Long: `Run the full course pipeline in-process: classify the request, generate
a course and repair it until it meets the length floors.

The course JSON is printed to stdout, or written to --out. Rejected requests
print "Not Valid Content".

--deeper accepts either a previously generated course file or a course
title, and requests a follow-up course on the same subject in more depth.`,
	Example: `  courseforge generate "Explain quantum teleportation"
  courseforge generate --deeper course.json --out deeper.json
  courseforge generate --raw "What is a qubit?"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		text := strings.Join(args, " ")
		if generateDeeper != "" {
			title, err := deeperTitle(generateDeeper)
			if err != nil {
				return err
			}
			text = coursegen.DeeperPrompt(title)
		}

		mgr, _, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}

		registry := providers.NewRegistry()
		registry.SetLogger(logger)
		registry.Reload(cfg.ToProviderRegistryConfig())
		if !registry.HasLLM(cfg.Defaults.LLMProvider) {
			return fmt.Errorf("default LLM provider %q is not configured (set its api_key)", cfg.Defaults.LLMProvider)
		}

		resolver := generation.NewPromptResolver(logger)
		if err := resolver.SetOverrides(cfg.PromptOverrides()); err != nil {
			return err
		}
		settings := cfg.ToGenerationSettings()
		client, err := generation.NewLLMClient(generation.LLMClientConfig{
			Source:   registry,
			Provider: cfg.Defaults.LLMProvider,
			Prompts:  resolver,
			Settings: settings,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		svc, err := coursegen.New(coursegen.Config{Client: client, Settings: settings, Logger: logger})
		if err != nil {
			return err
		}

		outcome, err := svc.Run(ctx, text)
		switch {
		case errors.Is(err, coursegen.ErrOutOfDomain), errors.Is(err, coursegen.ErrMalformedGeneration):
			return api.Output(coursegen.Response{Content: coursegen.NotValidContent})
		case err != nil:
			return err
		}

		if generateOut != "" || generateRaw {
			if err := writeCourse(outcome.Document); err != nil {
				return err
			}
			if generateRaw {
				return nil
			}
		}
		return api.Output(courseSummary(outcome))
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateDeeper, "deeper", "", "Previous course file or title to go deeper on")
	generateCmd.Flags().StringVar(&generateOut, "out", "", "Write the course JSON to this file")
	generateCmd.Flags().BoolVar(&generateRaw, "raw", false, "Print only the course JSON (to stdout, or --out)")

	rootCmd.AddCommand(generateCmd)
}

// deeperTitle reads the course title from a file, or treats arg as the title.
func deeperTitle(arg string) (string, error) {
	data, err := os.ReadFile(arg)
	if errors.Is(err, os.ErrNotExist) {
		return arg, nil
	}
	if err != nil {
		return "", err
	}

	doc, err := course.Parse(string(data))
	if err != nil {
		return "", fmt.Errorf("failed to read course %s: %w", arg, err)
	}
	if doc.Title == "" {
		return "", fmt.Errorf("course %s has no title", arg)
	}
	return doc.Title, nil
}

// summary is the structured CLI view of a generated course.
type summary struct {
	Title    string   `json:"course_title" yaml:"course_title"`
	State    string   `json:"state" yaml:"state"`
	Words    int      `json:"words" yaml:"words"`
	Repairs  int      `json:"repairs" yaml:"repairs"`
	Sections []string `json:"sections" yaml:"sections"`
	Choices  []string `json:"choices" yaml:"choices"`
	File     string   `json:"file,omitempty" yaml:"file,omitempty"`
}

func courseSummary(o *coursegen.Outcome) summary {
	s := summary{
		Title:   o.Document.Title,
		State:   o.Result.State.String(),
		Words:   o.Result.Words(),
		Repairs: o.Result.Repairs,
		File:    generateOut,
	}
	for _, sec := range o.Document.Sections {
		s.Sections = append(s.Sections, sec.Heading)
	}
	for _, c := range o.Document.Choices {
		s.Choices = append(s.Choices, c.Key+": "+c.Text)
	}
	return s
}

// writeCourse writes indented course JSON to --out, or stdout.
func writeCourse(doc *course.Document) error {
	raw, err := doc.JSON()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')

	if generateOut == "" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(generateOut, buf.Bytes(), 0o644)
}
