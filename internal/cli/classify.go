package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var showRules bool

var classifyCmd = &cobra.Command{
	Use:   "classify [text...]",
	Short: "Show how a command is classified",
	Long: `Classify a command without executing it and print the intent as JSON.
With --rules, print the ordered rule table instead.`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&showRules, "rules", false, "print the rule table in match order")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	if !showRules && len(args) == 0 {
		return fmt.Errorf("classify requires a command text or --rules")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	classifier, err := newClassifier(cfg, log.GetZerolog())
	if err != nil {
		return fmt.Errorf("failed to build intent classifier: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if showRules {
		return enc.Encode(classifier.Rules())
	}
	return enc.Encode(classifier.Classify(strings.Join(args, " ")))
}
