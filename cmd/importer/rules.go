package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-import/internal/domain/categorization"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage merchant categorization rules",
	}
	cmd.AddCommand(newRulesImportCmd(a))
	cmd.AddCommand(newRulesMatchCmd(a))
	return cmd
}

func newRulesImportCmd(a *app) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store the rules of a CSV or YAML file for a user",
		Long: `Store merchant rules from a CSV with the columns pattern, match_type, category_id,
priority and optionally enabled, or from a .yaml file with a top-level rules list using
the same keys. match_type is CONTAINS, STARTS_WITH or REGEX.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user, false)
			if err != nil {
				return err
			}
			rules, err := loadRulesFile(args[0])
			if err != nil {
				return err
			}

			// The file is what gets stored, not what categorizes.
			a.cfg.Import.RulesFile = ""
			deps, err := InitDependencies(a.cfg, a.logger, userID, false)
			if err != nil {
				return err
			}
			defer deps.Close()

			for i := range rules {
				if err := deps.RuleRepo.CreateRule(cmd.Context(), &rules[i]); err != nil {
					return fmt.Errorf("rule %d (%q): %w", i+1, rules[i].Pattern, err)
				}
			}
			a.logger.Info("merchant rules stored", "count", len(rules), "user_id", userID)
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d rules\n", len(rules))
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "owner of the rules (uuid)")
	return cmd
}

func newRulesMatchCmd(a *app) *cobra.Command {
	var (
		user      string
		rulesFile string
	)

	cmd := &cobra.Command{
		Use:   "match DESCRIPTION...",
		Short: "Show which rule categorizes each description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rules []categorization.MerchantRule
			if rulesFile != "" {
				loaded, err := loadRulesFile(rulesFile)
				if err != nil {
					return err
				}
				rules = loaded
			} else {
				userID, err := parseUser(user, false)
				if err != nil {
					return err
				}
				a.cfg.Import.RulesFile = ""
				deps, err := InitDependencies(a.cfg, a.logger, userID, false)
				if err != nil {
					return err
				}
				defer deps.Close()
				if rules, err = deps.RuleRepo.EnabledRules(cmd.Context()); err != nil {
					return err
				}
			}

			writeMatches(cmd.OutOrStdout(), categorization.NewEngine(rules), rules, args)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "owner of the stored rules (uuid)")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "rules file (CSV or YAML) to test instead of the stored rules")
	return cmd
}

func writeMatches(w io.Writer, engine *categorization.Engine, rules []categorization.MerchantRule, descriptions []string) {
	for _, msg := range engine.Warnings() {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}

	var misses []string
	for i, m := range engine.MatchBatch(descriptions) {
		if m == nil {
			fmt.Fprintf(w, "%q: no match\n", descriptions[i])
			misses = append(misses, descriptions[i])
			continue
		}
		fmt.Fprintf(w, "%q: category %d via %s %q\n", descriptions[i], m.CategoryID, m.MatchType, m.Pattern)
	}

	for _, s := range categorization.Suggest(misses, rules, categorization.DefaultSuggestThreshold) {
		fmt.Fprintf(w, "  %q is close to %q (score %d)\n", s.Description, s.Pattern, s.Score)
	}
}
