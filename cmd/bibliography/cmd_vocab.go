package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bibliography/internal/vocabulary"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Inspect and seed vocabularies",
}

var vocabListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored vocabularies",
	Args:  cobra.NoArgs,
	RunE:  runVocabList,
}

var vocabShowCmd = &cobra.Command{
	Use:   "show [prefix]",
	Short: "Show the classes and properties of a vocabulary",
	Args:  cobra.ExactArgs(1),
	RunE:  runVocabShow,
}

var vocabLoadCmd = &cobra.Command{
	Use:   "load [file.yaml]",
	Short: "Seed a vocabulary from a YAML definition (no-op if already present)",
	Args:  cobra.ExactArgs(1),
	RunE:  runVocabLoad,
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runVocabList(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	vocabs, err := s.ListVocabularies(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(vocabs) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No vocabularies. Run 'bibliography install' first."))
		return nil
	}
	for _, v := range vocabs {
		classes, props, err := s.CountTerms(ctx, v.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-10s %s\n", titleStyle.Render(v.Prefix), v.Label)
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("           %s (%d classes, %d properties)", v.NamespaceURI, classes, props)))
	}
	return nil
}

func runVocabShow(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := s.FindVocabularyByPrefix(ctx, args[0])
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("no vocabulary with prefix %q", args[0])
	}
	classes, err := s.ListClasses(ctx, v.ID)
	if err != nil {
		return err
	}
	props, err := s.ListProperties(ctx, v.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(v.Label))
	fmt.Fprintln(out, mutedStyle.Render(v.NamespaceURI))
	printTerms(cmd, "Classes", v, classes)
	printTerms(cmd, "Properties", v, props)
	return nil
}

func printTerms(cmd *cobra.Command, heading string, v *vocabulary.Vocabulary, rows []vocabulary.TermRow) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s (%d)\n", titleStyle.Render(heading), len(rows))
	for _, r := range rows {
		fmt.Fprintf(out, "  %s:%s  %s\n", v.Prefix, r.LocalName, mutedStyle.Render(r.Label))
	}
}

func runVocabLoad(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	def, err := vocabulary.LoadDefinitionFile(args[0])
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := vocabulary.NewSeeder(s).EnsureVocabulary(ctx, def); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Vocabulary %s (%s) is seeded", def.Prefix, def.NamespaceURI)))
	return nil
}
